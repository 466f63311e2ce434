package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// Parse decodes manifest JSON. Entries that fail to decode are skipped and
// reported as *EntryError values; only a document that is not a JSON object
// fails the whole parse.
func Parse(data []byte) (Manifest, []error, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
	}
	if LooksLikeHTML(data) {
		return nil, nil, fmt.Errorf("%w: content appears to be HTML instead of JSON", ErrInvalidManifest)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	m := make(Manifest, len(entries))
	var skipped []error
	for _, name := range names {
		var pkg Package
		if err := json.Unmarshal(entries[name], &pkg); err != nil {
			skipped = append(skipped, &EntryError{Name: name, Err: err})
			continue
		}
		m[name] = pkg
	}

	return m, skipped, nil
}

// ParseJSONC is Parse for JSON with comments and trailing commas.
func ParseJSONC(data []byte) (Manifest, []error, error) {
	return Parse(jsonc.ToJSON(data))
}

// LoadFile reads and parses the manifest copy at path. A missing file fails
// with ErrManifestNotFound.
func LoadFile(path string) (Manifest, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	return ParseJSONC(data)
}

// LooksLikeHTML reports whether data starts with an HTML doctype or tag,
// which is what a mistyped manifest URL usually returns.
func LooksLikeHTML(data []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(data))
	return bytes.HasPrefix(trimmed, []byte("<!doctype html")) || bytes.HasPrefix(trimmed, []byte("<html"))
}
