package service

import (
	"context"

	"github.com/blang/semver"

	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/state"
)

// ListService reports installed packages.
type ListService struct {
	*env
}

// NewListService creates a ListService from d.
func NewListService(d Deps) (*ListService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}
	return &ListService{env: e}, nil
}

// ListEntry is one installed package.
type ListEntry struct {
	Record *state.Record
	// Available is the manifest version for this platform, if known.
	Available string
	// UpdateAvailable reports whether Available is newer than the
	// installed version.
	UpdateAvailable bool
}

// Execute lists installed packages by name. Versions are compared against
// the cached manifest only; list never touches the network.
func (s *ListService) Execute(ctx context.Context) ([]ListEntry, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, err
	}

	var available manifest.Manifest
	if len(records) > 0 {
		m, err := s.catalog.Cached(ctx)
		if err != nil {
			s.logger.Debug("no manifest for update check", "error", err)
		} else {
			available = m.ForPlatform(s.key())
		}
	}

	entries := make([]ListEntry, 0, len(records))
	for _, rec := range records {
		entry := ListEntry{Record: rec}
		if pkg, ok := available[rec.Name]; ok {
			entry.Available = pkg.Version
			entry.UpdateAvailable = newer(pkg.Version, rec.Version)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// newer reports whether candidate is a higher version than current. Versions
// that do not parse, even tolerantly, are never newer.
func newer(candidate, current string) bool {
	c, err := semver.ParseTolerant(candidate)
	if err != nil {
		return false
	}
	v, err := semver.ParseTolerant(current)
	if err != nil {
		return false
	}
	return c.GT(v)
}
