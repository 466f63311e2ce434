// Package testutil provides utilities for testing leaf in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Home       string
	InstallDir string
	BinDir     string
}

// SetupTestEnv points HOME, LEAF_HOME and LEAF_BIN_DIR at fresh temporary
// directories so tests never touch the user's real install.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Home:       filepath.Join(tmpDir, "home"),
		InstallDir: filepath.Join(tmpDir, "home", ".local", "leaf"),
		BinDir:     filepath.Join(tmpDir, "home", ".local", "bin"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("LEAF_HOME", env.InstallDir)
	t.Setenv("LEAF_BIN_DIR", env.BinDir)

	// Mark as test mode
	t.Setenv("LEAF_TEST_MODE", "1")

	if err := os.MkdirAll(env.Home, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", env.Home, err)
	}

	return env
}
