package build

import (
	"fmt"
	"strings"
)

// CommandError reports a build step that exited non-zero.
type CommandError struct {
	Package    string
	Step       int // 1-based
	Command    string
	ExitStatus int // -1 when the shell could not be started
	Stdout     string
	Stderr     string
	Err        error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("build step %d for %s failed (exit status %d): %s", e.Step, e.Package, e.ExitStatus, e.Command)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// MissingExecutableError reports a declared executable the build did not produce.
type MissingExecutableError struct {
	Package string
	Path    string
}

func (e *MissingExecutableError) Error() string {
	return fmt.Sprintf("package %s: executable %s was not produced by the build", e.Package, e.Path)
}
