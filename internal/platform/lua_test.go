package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		code string
		want lua.LValue
	}{
		{
			name: "key",
			info: &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"},
			code: `return platform.key`,
			want: lua.LString("linux-x86_64"),
		},
		{
			name: "is_linux",
			info: &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"},
			code: `return platform.is_linux`,
			want: lua.LTrue,
		},
		{
			name: "is_macos on linux",
			info: &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"},
			code: `return platform.is_macos`,
			want: lua.LFalse,
		},
		{
			name: "distro id",
			info: &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: FamilyDebian, Version: "22.04"},
			code: `return platform.distro.id`,
			want: lua.LString("ubuntu"),
		},
		{
			name: "distro nil on macos",
			info: &Info{Key: MacOSAarch64, OS: "darwin", Arch: "arm64"},
			code: `return platform.distro`,
			want: lua.LNil,
		},
		{
			name: "is_arm64",
			info: &Info{Key: MacOSAarch64, OS: "darwin", Arch: "arm64"},
			code: `return platform.is_arm64`,
			want: lua.LTrue,
		},
		{
			name: "when true",
			info: &Info{Key: WindowsX8664, OS: "windows", Arch: "amd64"},
			code: `return platform.when(platform.is_windows, "foo.zip")`,
			want: lua.LString("foo.zip"),
		},
		{
			name: "when false",
			info: &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"},
			code: `return platform.when(platform.is_windows, "foo.zip")`,
			want: lua.LNil,
		},
		{
			name: "pick by key",
			info: &Info{Key: MacOSAarch64, OS: "darwin", Arch: "arm64"},
			code: `return platform.pick{["linux-x86_64"] = "tool-linux.tar.gz", ["macos-aarch64"] = "tool-mac.tar.gz"}`,
			want: lua.LString("tool-mac.tar.gz"),
		},
		{
			name: "pick default",
			info: &Info{Key: LinuxAarch64, OS: "linux", Arch: "arm64"},
			code: `return platform.pick{["linux-x86_64"] = "x64", default = "src"}`,
			want: lua.LString("src"),
		},
		{
			name: "pick nothing",
			info: &Info{Key: WindowsX8664, OS: "windows", Arch: "amd64"},
			code: `return platform.pick{["linux-x86_64"] = "x64"}`,
			want: lua.LNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L := lua.NewState()
			defer L.Close()

			if err := InjectPlatformTable(L, tt.info); err != nil {
				t.Fatalf("InjectPlatformTable() error = %v", err)
			}
			if err := L.DoString(tt.code); err != nil {
				t.Fatalf("failed to execute code: %v", err)
			}
			got := L.Get(-1)
			L.Pop(1)

			if got.Type() != tt.want.Type() {
				t.Fatalf("type mismatch: got %v, want %v", got.Type(), tt.want.Type())
			}
			if got.String() != tt.want.String() {
				t.Errorf("value mismatch: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInjectPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	for _, code := range []string{
		`platform.key = "macos-aarch64"`,
		`platform.new_field = 1`,
		`setmetatable(platform, nil)`,
	} {
		err := L.DoString(code)
		if err == nil {
			t.Errorf("expected error for %q", code)
			continue
		}
		if strings.Contains(code, "setmetatable") {
			continue
		}
		if !strings.Contains(err.Error(), "read-only") {
			t.Errorf("unexpected error for %q: %v", code, err)
		}
	}
}
