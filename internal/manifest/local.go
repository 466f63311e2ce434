package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// LoadLocal reads every local manifest in dir (*.json, *.jsonc, *.lua) in
// lexical order and merges them; later files override earlier ones by
// package name. A missing dir yields an empty manifest.
func LoadLocal(ctx context.Context, dir string, info *platform.Info) (Manifest, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read local manifest dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".jsonc", ".lua":
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	merged := make(Manifest)
	var skipped []error
	for _, name := range files {
		filePath := filepath.Join(dir, name)
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, nil, fmt.Errorf("read local manifest %s: %w", name, err)
		}

		var (
			m       Manifest
			entries []error
		)
		if strings.EqualFold(filepath.Ext(name), ".lua") {
			m, entries, err = ParseLua(ctx, name, string(data), info)
		} else {
			m, entries, err = ParseJSONC(data)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("local manifest %s: %w", name, err)
		}

		merged.Merge(m)
		skipped = append(skipped, entries...)
	}

	return merged, skipped, nil
}
