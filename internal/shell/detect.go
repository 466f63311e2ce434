package shell

import (
	"os"
	"path"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// DetectShell detects the user's shell from $SHELL, falling back to the
// parent process name.
func DetectShell() (*DetectionResult, error) {
	if shell := os.Getenv("SHELL"); shell != "" {
		if shellType := parseShellFromPath(shell); shellType.IsValid() {
			return &DetectionResult{
				Shell:     shellType,
				Method:    "$SHELL environment variable",
				ShellPath: shell,
			}, nil
		}
	}

	if shellType, shellPath := detectFromParentProcess(); shellType.IsValid() {
		return &DetectionResult{
			Shell:     shellType,
			Method:    "parent process",
			ShellPath: shellPath,
		}, nil
	}

	return &DetectionResult{
		Shell:  ShellUnknown,
		Method: "detection failed",
	}, nil
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/bin/zsh -> zsh
//   - -zsh (login shell) -> zsh
//   - C:\Program Files\Git\bin\bash.exe -> bash
//
// Both separators are accepted on every platform.
func parseShellFromPath(shellPath string) ShellType {
	baseName := strings.ToLower(path.Base(strings.ReplaceAll(shellPath, `\`, "/")))
	baseName = strings.TrimPrefix(baseName, "-")
	baseName = strings.TrimSuffix(baseName, ".exe")

	switch baseName {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

func detectFromParentProcess() (ShellType, string) {
	parent, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		return ShellUnknown, ""
	}
	if exe, err := parent.Exe(); err == nil {
		if shell := parseShellFromPath(exe); shell.IsValid() {
			return shell, exe
		}
	}
	name, err := parent.Name()
	if err != nil {
		return ShellUnknown, ""
	}
	return parseShellFromPath(name), name
}

// GetSupportedShells returns a list of supported shells
func GetSupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}
