package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

// NukeService removes every package and the install root.
type NukeService struct {
	*env
}

// NewNukeService creates a NukeService from d.
func NewNukeService(d Deps) (*NukeService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}
	return &NukeService{env: e}, nil
}

// NukeRequest must carry Confirmed to do anything.
type NukeRequest struct {
	Confirmed bool
}

// NukeResult reports what was removed.
type NukeResult struct {
	// Unlinked lists bin-directory aliases that pointed into the packages
	// directory.
	Unlinked   []string
	InstallDir string
}

// Execute removes every alias that resolves into the packages directory and
// then the whole install root. Copied aliases on platforms without symlinks
// are left in place.
func (s *NukeService) Execute(ctx context.Context, req NukeRequest) (*NukeResult, error) {
	if !req.Confirmed {
		return nil, ErrNotConfirmed
	}

	lock, err := s.begin(ctx, string(transaction.OperationNuke), "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	unlinked, err := s.linker.PruneInto(s.cfg.PackagesDir)
	if err != nil {
		return nil, err
	}
	for _, alias := range unlinked {
		s.logger.Info("removed alias", "alias", alias)
	}

	// The lock file lives inside the install root; an open handle would
	// block its removal on Windows.
	_ = lock.Release()
	if err := os.RemoveAll(s.cfg.InstallDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove install directory: %w", err)
	}
	s.logger.Info("removed install directory", "path", s.cfg.InstallDir)

	return &NukeResult{Unlinked: unlinked, InstallDir: s.cfg.InstallDir}, nil
}
