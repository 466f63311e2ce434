package shell

import (
	"errors"
	"testing"
)

func TestDetectShell(t *testing.T) {
	tests := []struct {
		name  string
		shell string
		want  ShellType
	}{
		{"bash", "/bin/bash", ShellBash},
		{"zsh", "/usr/bin/zsh", ShellZsh},
		{"fish", "/usr/local/bin/fish", ShellFish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.shell)

			result, err := DetectShell()
			if err != nil {
				t.Fatalf("DetectShell() error = %v", err)
			}
			if result.Shell != tt.want {
				t.Errorf("Shell = %v, want %v", result.Shell, tt.want)
			}
			if result.Method != "$SHELL environment variable" {
				t.Errorf("Method = %q", result.Method)
			}
			if result.ShellPath != tt.shell {
				t.Errorf("ShellPath = %q, want %q", result.ShellPath, tt.shell)
			}
		})
	}
}

func TestDetectShell_Fallback(t *testing.T) {
	t.Setenv("SHELL", "/bin/tcsh")

	// The parent process is the test binary's runner, which may or may not
	// be a shell; either way detection must not fail.
	result, err := DetectShell()
	if err != nil {
		t.Fatalf("DetectShell() error = %v", err)
	}
	if result.Method == "$SHELL environment variable" {
		t.Error("unsupported $SHELL should not be accepted")
	}
}

func TestParseShellFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ShellType
	}{
		{"/bin/bash", ShellBash},
		{"/BIN/ZSH", ShellZsh},
		{"-zsh", ShellZsh},
		{"fish", ShellFish},
		{`C:\Program Files\Git\bin\bash.exe`, ShellBash},
		{"/bin/sh", ShellUnknown},
		{"", ShellUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := parseShellFromPath(tt.path); got != tt.want {
				t.Errorf("parseShellFromPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseShellType(t *testing.T) {
	got, err := ParseShellType("zsh")
	if err != nil || got != ShellZsh {
		t.Errorf("ParseShellType(zsh) = %v, %v", got, err)
	}

	_, err = ParseShellType("powershell")
	var unsupported *UnsupportedShellError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want *UnsupportedShellError", err)
	}
	if unsupported.Shell != "powershell" {
		t.Errorf("Shell = %q", unsupported.Shell)
	}
}

func TestShellType_IsValid(t *testing.T) {
	for _, s := range GetSupportedShells() {
		if !s.IsValid() {
			t.Errorf("%v should be valid", s)
		}
	}
	if ShellUnknown.IsValid() || ShellType("csh").IsValid() {
		t.Error("unsupported shells should be invalid")
	}
}
