package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// normalizeExecutables accepts the three wire shapes of the executables
// field: a single path string, a list of path strings, or a list of
// {path, name?} objects (strings and objects may be mixed). List items
// that are neither, or objects without a path, are skipped.
func normalizeExecutables(raw json.RawMessage) ([]ExecutableSpec, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("executables: %w", err)
		}
		if single == "" {
			return nil, nil
		}
		return []ExecutableSpec{{Path: single}}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("executables: %w", err)
		}
		specs := make([]ExecutableSpec, 0, len(items))
		for _, item := range items {
			if spec, ok := decodeExecutableItem(item); ok {
				specs = append(specs, spec)
			}
		}
		return specs, nil

	default:
		return nil, fmt.Errorf("executables: expected string or list, got %s", trimmed)
	}
}

func decodeExecutableItem(item json.RawMessage) (ExecutableSpec, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return ExecutableSpec{}, false
	}

	switch item[0] {
	case '"':
		var p string
		if err := json.Unmarshal(item, &p); err != nil || p == "" {
			return ExecutableSpec{}, false
		}
		return ExecutableSpec{Path: p}, true
	case '{':
		var obj struct {
			Path *string `json:"path"`
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil || obj.Path == nil || *obj.Path == "" {
			return ExecutableSpec{}, false
		}
		spec := ExecutableSpec{Path: *obj.Path}
		if obj.Name != nil {
			spec.Name = *obj.Name
		}
		return spec, true
	default:
		return ExecutableSpec{}, false
	}
}
