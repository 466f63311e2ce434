package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/leaf/internal/state"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

// RemoveService uninstalls one package.
type RemoveService struct {
	*env
}

// NewRemoveService creates a RemoveService from d.
func NewRemoveService(d Deps) (*RemoveService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}
	return &RemoveService{env: e}, nil
}

// RemoveRequest names the package to remove.
type RemoveRequest struct {
	Name string
}

// RemoveResult describes a completed removal.
type RemoveResult struct {
	Record *state.Record
	// Unlinked lists the aliases removed from the bin directory.
	Unlinked []string
}

// Execute deletes the record first, then the package's aliases, then its
// directory. A crash at any point leaves the package reading as not
// installed.
func (s *RemoveService) Execute(ctx context.Context, req RemoveRequest) (*RemoveResult, error) {
	name := req.Name
	if err := state.ValidateName(name); err != nil {
		return nil, err
	}

	if _, err := s.record(name); err != nil {
		return nil, err
	}

	lock, err := s.begin(ctx, string(transaction.OperationRemove), name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	rec, err := s.record(name)
	if err != nil {
		return nil, err
	}

	journal := transaction.New(transaction.OperationRemove, name)
	if err := journal.Update(s.cfg.TmpDir, transaction.StateInProgress, nil); err != nil {
		return nil, err
	}
	defer func() {
		if err := journal.Done(s.cfg.TmpDir); err != nil {
			s.logger.Warn("failed to remove journal", "package", name, "error", err)
		}
	}()

	if err := s.store.DeleteRecord(name); err != nil {
		return nil, err
	}
	s.transition(name, StateRecordDeleted)

	pkgDir := s.store.PackageDir(name)
	unlinked, err := s.linker.Unlink(pkgDir, rec.Executables)
	if err != nil {
		_ = journal.Update(s.cfg.TmpDir, transaction.StateFailed, err)
		return nil, err
	}

	if err := s.store.RemoveDir(name); err != nil {
		_ = journal.Update(s.cfg.TmpDir, transaction.StateFailed, err)
		return nil, err
	}
	s.transition(name, StateFilesDeleted, "unlinked", len(unlinked))

	return &RemoveResult{Record: rec, Unlinked: unlinked}, nil
}

func (s *RemoveService) record(name string) (*state.Record, error) {
	rec, err := s.store.Read(name)
	if errors.Is(err, state.ErrNoRecord) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	return rec, err
}
