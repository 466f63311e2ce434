package shell

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

// RCFilePath returns the rc file for shell under home.
func RCFilePath(shell ShellType, home string) (string, error) {
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(home, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// RCFileExists reports whether rcPath is an existing regular file. Symlinks
// are rejected so an edit never lands somewhere the user did not expect.
func RCFileExists(rcPath string) (bool, error) {
	info, err := os.Lstat(rcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to stat file", Cause: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false, &RCFileError{Path: rcPath, Message: "refusing to modify a symlink"}
	}
	if !info.Mode().IsRegular() {
		return false, &RCFileError{Path: rcPath, Message: "not a regular file"}
	}
	return true, nil
}

// HasActivationLine checks if the rc file already activates leaf.
func HasActivationLine(rcPath string) (bool, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to open file", Cause: err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, ActivationMarker) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	return false, nil
}

// BackupRCFile copies the rc file next to itself with BackupSuffix.
func BackupRCFile(rcPath string) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		return "", &RCFileError{Path: rcPath, Message: "failed to read file for backup", Cause: err}
	}

	backupPath := rcPath + BackupSuffix
	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return "", &RCFileError{Path: backupPath, Message: "failed to write backup file", Cause: err}
	}
	return backupPath, nil
}

// AddActivationLine appends the leaf activation line to the rc file,
// creating the file and its parent directories if needed.
func AddActivationLine(rcPath, activationCommand string) error {
	if !strings.Contains(activationCommand, ActivationMarker) {
		return &RCFileError{Path: rcPath, Message: fmt.Sprintf("invalid activation command format: %q", activationCommand)}
	}

	exists, err := RCFileExists(rcPath)
	if err != nil {
		return err
	}

	var content []byte
	perm := os.FileMode(0644)
	if exists {
		info, err := os.Stat(rcPath)
		if err != nil {
			return &RCFileError{Path: rcPath, Message: "failed to stat file", Cause: err}
		}
		perm = info.Mode().Perm()
		if content, err = os.ReadFile(rcPath); err != nil {
			return &RCFileError{Path: rcPath, Message: "failed to read existing file", Cause: err}
		}
	}

	var buf bytes.Buffer
	buf.Write(content)
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "\n# leaf - user-space package manager\n%s\n", activationCommand)

	if err := transaction.WriteFileAtomic(rcPath, buf.Bytes(), perm); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to write file", Cause: err}
	}
	return nil
}
