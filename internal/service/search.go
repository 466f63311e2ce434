package service

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
)

// SearchService finds packages in the manifest.
type SearchService struct {
	*env
}

// NewSearchService creates a SearchService from d.
func NewSearchService(d Deps) (*SearchService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}
	return &SearchService{env: e}, nil
}

// SearchHit is a matching package.
type SearchHit struct {
	Name      string
	Package   manifest.Package
	Installed bool
}

// Execute returns packages available on this platform that match term.
func (s *SearchService) Execute(ctx context.Context, term string) ([]SearchHit, error) {
	m, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := m.Search(term, s.key())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	installed, err := s.installedSet()
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, SearchHit{
			Name:      match.Name,
			Package:   match.Package,
			Installed: installed[match.Name],
		})
	}
	return hits, nil
}
