package service

import "context"

// UpdateService refreshes the local manifest copy.
type UpdateService struct {
	*env
}

// NewUpdateService creates an UpdateService from d.
func NewUpdateService(d Deps) (*UpdateService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}
	return &UpdateService{env: e}, nil
}

// UpdateResult summarizes a refresh.
type UpdateResult struct {
	// Packages is the number of valid entries in the new manifest.
	Packages int
	// Available is the number of those with a variant for this platform.
	Available int
	// Skipped holds the entries that failed to decode.
	Skipped []error
}

// Execute downloads the remote manifest. The previous copy is replaced only
// when the download validates.
func (s *UpdateService) Execute(ctx context.Context) (*UpdateResult, error) {
	m, skipped, err := s.catalog.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		Packages:  len(m),
		Available: len(m.ForPlatform(s.key())),
		Skipped:   skipped,
	}, nil
}
