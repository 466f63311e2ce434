package manifest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

var linuxInfo = &platform.Info{Key: platform.LinuxX8664, OS: "linux", Arch: "amd64"}

func TestParseLua(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		check func(t *testing.T, m Manifest)
	}{
		{
			name: "returned table",
			code: `
return {
  tool = {
    description = "a tool",
    version = "1.2.3",
    tags = { "cli", "search" },
    platforms = {
      ["linux-x86_64"] = { url = "https://x/tool.tar.gz", executables = { "bin/tool" } },
    },
  },
}`,
			check: func(t *testing.T, m Manifest) {
				pkg, err := m.Get("tool")
				if err != nil {
					t.Fatal(err)
				}
				if pkg.Version != "1.2.3" || len(pkg.Tags) != 2 {
					t.Errorf("pkg = %+v", pkg)
				}
				v, err := pkg.Variant(platform.LinuxX8664)
				if err != nil {
					t.Fatal(err)
				}
				if v.Kind != KindArchive || v.Executables[0].Path != "bin/tool" {
					t.Errorf("variant = %+v", v)
				}
			},
		},
		{
			name: "global packages table",
			code: `packages = { x = { description = "x", version = "1", platforms = { ["linux-x86_64"] = { url = "https://x/x", type = "binary", executables = "x" } } } }`,
			check: func(t *testing.T, m Manifest) {
				if _, ok := m["x"]; !ok {
					t.Errorf("x missing: %v", m.Names())
				}
			},
		},
		{
			name: "platform key drives url",
			code: `
return {
  tool = {
    description = "t",
    version = "1",
    platforms = {
      [platform.key] = {
        url = "https://x/tool-" .. platform.key .. ".zip",
        executables = { platform.when(platform.is_windows, "tool.exe"), platform.when(platform.is_linux, "tool") },
      },
    },
  },
}`,
			check: func(t *testing.T, m Manifest) {
				pkg := m["tool"]
				v, err := pkg.Variant(platform.LinuxX8664)
				if err != nil {
					t.Fatal(err)
				}
				if v.URL != "https://x/tool-linux-x86_64.zip" {
					t.Errorf("URL = %q", v.URL)
				}
				if len(v.Executables) != 1 || v.Executables[0].Path != "tool" {
					t.Errorf("Executables = %+v", v.Executables)
				}
			},
		},
		{
			name: "empty table",
			code: `return {}`,
			check: func(t *testing.T, m Manifest) {
				if len(m) != 0 {
					t.Errorf("len = %d, want 0", len(m))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := ParseLua(context.Background(), "test.lua", tt.code, linuxInfo)
			if err != nil {
				t.Fatalf("ParseLua() error = %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestParseLua_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"syntax error", `return {`},
		{"runtime error", `error("boom")`},
		{"no table", `return 42`},
		{"os is sandboxed", `os.execute("true")`},
		{"io is sandboxed", `io.open("/etc/passwd")`},
		{"require is sandboxed", `require("os")`},
		{"platform is read-only", `platform.key = "x"; return {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseLua(context.Background(), "bad.lua", tt.code, linuxInfo)
			var luaErr *LuaError
			if !errors.As(err, &luaErr) {
				t.Fatalf("ParseLua() error = %v, want *LuaError", err)
			}
			if luaErr.Source != "bad.lua" {
				t.Errorf("Source = %q", luaErr.Source)
			}
		})
	}
}

func TestParseLua_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := ParseLua(ctx, "loop.lua", `while true do end`, linuxInfo); err == nil {
		t.Fatal("expected error for runaway script")
	}
}
