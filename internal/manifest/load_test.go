package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

const scenarioManifest = `{"foo":{"description":"d","version":"1.0","platforms":{"linux-x86_64":{"url":"http://x/foo.tar.gz","executables":["bin/foo"]}}}}`

func TestParse(t *testing.T) {
	m, skipped, err := Parse([]byte(scenarioManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}

	pkg, err := m.Get("foo")
	if err != nil {
		t.Fatal(err)
	}
	v, err := pkg.Variant(platform.LinuxX8664)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KindArchive || v.URL != "http://x/foo.tar.gz" || v.Executables[0].Alias() != "foo" {
		t.Errorf("variant = %+v", v)
	}
}

func TestParse_SkipsInvalidEntries(t *testing.T) {
	data := []byte(`{
		"good": {"description": "ok", "version": "1", "platforms": {"linux-x86_64": {"url": "https://x/a.zip"}}},
		"bad": {"description": "no url", "version": "1", "platforms": {"linux-x86_64": {"type": "binary"}}},
		"worse": "not an object"
	}`)

	m, skipped, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := m["good"]; !ok || len(m) != 1 {
		t.Errorf("manifest = %v, want only good", m.Names())
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(skipped))
	}
	var entryErr *EntryError
	if !errors.As(skipped[0], &entryErr) || entryErr.Name != "bad" {
		t.Errorf("skipped[0] = %v, want entry error for bad", skipped[0])
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "  \n "},
		{"html doctype", "<!DOCTYPE html><html></html>"},
		{"html tag", "\n  <HTML><body>404</body></HTML>"},
		{"invalid json", `{"a": `},
		{"array", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Parse([]byte(tt.data)); !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("Parse() error = %v, want ErrInvalidManifest", err)
			}
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{"<!doctype html>", true},
		{"   <!DOCTYPE HTML PUBLIC>", true},
		{"<html lang=en>", true},
		{`{"html": "<html>"}`, false},
		{"", false},
		{"<xml/>", false},
	}

	for _, tt := range tests {
		if got := LooksLikeHTML([]byte(tt.data)); got != tt.want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
		// a local tool
		"tool": {
			"description": "t",
			"version": "0.1",
			"platforms": {
				"linux-x86_64": {"url": "https://x/tool", "type": "binary", "executables": "tool",},
			},
		},
	}`)

	m, _, err := ParseJSONC(data)
	if err != nil {
		t.Fatalf("ParseJSONC() error = %v", err)
	}
	if _, ok := m["tool"]; !ok {
		t.Error("tool missing")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := LoadFile(filepath.Join(dir, "packages.json")); !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("LoadFile(missing) error = %v, want ErrManifestNotFound", err)
	}

	path := filepath.Join(dir, "packages.json")
	if err := os.WriteFile(path, []byte(scenarioManifest), 0644); err != nil {
		t.Fatal(err)
	}
	m, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(m) != 1 {
		t.Errorf("len = %d, want 1", len(m))
	}
}
