package shell

import (
	"fmt"
	"os"
)

// Manager orchestrates shell integration setup
type Manager struct {
	binDir string
	home   string
}

// NewManager creates a new shell manager
func NewManager(config Config) (*Manager, error) {
	if config.BinDir == "" {
		return nil, fmt.Errorf("BinDir is required")
	}

	home := config.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
	}

	return &Manager{binDir: config.BinDir, home: home}, nil
}

// Activate returns the PATH snippet for shell.
func (m *Manager) Activate(shell ShellType) (string, error) {
	return ActivationScript(shell, m.binDir)
}

// SetupIntegration adds the activation line to shell's rc file.
func (m *Manager) SetupIntegration(shell ShellType, opts SetupOptions) (*SetupResult, error) {
	activationCmd, err := GenerateActivationCommand(shell)
	if err != nil {
		return nil, err
	}

	rcPath, err := RCFilePath(shell, m.home)
	if err != nil {
		return nil, err
	}

	exists, err := RCFileExists(rcPath)
	if err != nil {
		return nil, err
	}

	result := &SetupResult{
		Shell:             shell,
		RCFile:            rcPath,
		ActivationCommand: activationCmd,
	}

	if exists {
		if result.AlreadyPresent, err = HasActivationLine(rcPath); err != nil {
			return nil, fmt.Errorf("check activation line: %w", err)
		}
	}
	if result.AlreadyPresent && !opts.Force {
		return result, nil
	}
	if opts.DryRun {
		return result, nil
	}

	if opts.Backup && exists {
		if result.BackupPath, err = BackupRCFile(rcPath); err != nil {
			return nil, fmt.Errorf("backup rc file: %w", err)
		}
	}

	if err := AddActivationLine(rcPath, activationCmd); err != nil {
		return nil, fmt.Errorf("add activation line: %w", err)
	}
	result.Added = true

	return result, nil
}

// DetectAndSetup detects the user's shell and sets up integration
func (m *Manager) DetectAndSetup(opts SetupOptions) (*SetupResult, error) {
	detection, err := DetectShell()
	if err != nil {
		return nil, fmt.Errorf("detect shell: %w", err)
	}
	if !detection.Shell.IsValid() {
		return nil, &UnsupportedShellError{Shell: detection.ShellPath}
	}
	return m.SetupIntegration(detection.Shell, opts)
}
