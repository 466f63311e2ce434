package transaction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StagePrefix names staging directories. Stages live inside the packages
// directory, hidden from listings, so committing one never crosses a
// filesystem boundary.
const StagePrefix = ".stage-"

// ErrAlreadyCommitted is returned when a committed stage is reused.
var ErrAlreadyCommitted = errors.New("stage already committed")

// Stage is a scratch directory that becomes a package directory in one
// rename. It must live on the same filesystem as the commit destination.
type Stage struct {
	dir       string
	committed bool
}

// NewStage creates a fresh staging directory under root.
func NewStage(root string) (*Stage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	dir := filepath.Join(root, StagePrefix+uuid.New().String())
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	return &Stage{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Stage) Dir() string {
	return s.dir
}

// Commit moves the staged tree to dest, which must not exist.
func (s *Stage) Commit(dest string) error {
	if s.committed {
		return ErrAlreadyCommitted
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create destination parent: %w", err)
	}

	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("commit stage: %s already exists", dest)
	}

	if err := os.Rename(s.dir, dest); err != nil {
		return fmt.Errorf("commit stage: %w", err)
	}
	s.committed = true

	return SyncDir(parent)
}

// Discard removes the staging directory unless it was committed.
func (s *Stage) Discard() error {
	if s.committed {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("discard stage: %w", err)
	}
	return nil
}

// IsStageDir reports whether name looks like a staging directory.
func IsStageDir(name string) bool {
	return strings.HasPrefix(name, StagePrefix)
}
