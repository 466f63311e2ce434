package shell

import (
	"fmt"
	"strings"
)

// GenerateActivationCommand returns the line users add to their rc file.
func GenerateActivationCommand(shell ShellType) (string, error) {
	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`eval "$(leaf activate %s)"`, shell), nil
	case ShellFish:
		return fmt.Sprintf("leaf activate %s | source", shell), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// ActivationScript renders shell code that prepends binDir to PATH unless it
// is already present.
func ActivationScript(shell ShellType, binDir string) (string, error) {
	if binDir == "" {
		return "", fmt.Errorf("bin directory is required")
	}
	quoted := quote(binDir)

	var b strings.Builder
	switch shell {
	case ShellBash, ShellZsh:
		fmt.Fprintf(&b, "export LEAF_BIN_DIR=%s\n", quoted)
		fmt.Fprintf(&b, "case \":${PATH}:\" in\n")
		fmt.Fprintf(&b, "  *:%s:*) ;;\n", quoted)
		fmt.Fprintf(&b, "  *) export PATH=%s:\"${PATH}\" ;;\n", quoted)
		fmt.Fprintf(&b, "esac\n")
	case ShellFish:
		fmt.Fprintf(&b, "set -gx LEAF_BIN_DIR %s\n", quoted)
		fmt.Fprintf(&b, "if not contains -- %s $PATH\n", quoted)
		fmt.Fprintf(&b, "    set -gx PATH %s $PATH\n", quoted)
		fmt.Fprintf(&b, "end\n")
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
	return b.String(), nil
}

// quote wraps s in double quotes, escaping the characters that stay special
// inside them in sh and fish.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
