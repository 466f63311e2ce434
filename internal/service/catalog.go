package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ZebulonRouseFrantzich/leaf/internal/config"
	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// Catalog is the effective manifest: the local copy of the remote manifest
// with local.d entries merged over it.
type Catalog struct {
	cfg       *config.Config
	info      *platform.Info
	refresher *manifest.Refresher
	logger    logging.Logger
}

func newCatalog(cfg *config.Config, info *platform.Info, client *http.Client, logger logging.Logger) *Catalog {
	return &Catalog{
		cfg:       cfg,
		info:      info,
		refresher: manifest.NewRefresher(cfg.ManifestURL, cfg.UserAgent, client, logger),
		logger:    logger,
	}
}

// Load returns the effective manifest. When the local copy is missing and
// auto_update is on, it is fetched first.
func (c *Catalog) Load(ctx context.Context) (manifest.Manifest, error) {
	return c.load(ctx, c.cfg.AutoUpdate)
}

// Cached returns the effective manifest without touching the network.
func (c *Catalog) Cached(ctx context.Context) (manifest.Manifest, error) {
	return c.load(ctx, false)
}

// Refresh replaces the local copy with the remote manifest.
func (c *Catalog) Refresh(ctx context.Context) (manifest.Manifest, []error, error) {
	m, skipped, err := c.refresher.Refresh(ctx, c.cfg.ManifestPath())
	if err != nil {
		return nil, nil, fmt.Errorf("update package manifest: %w", err)
	}
	c.logSkipped("remote", skipped)
	return m, skipped, nil
}

func (c *Catalog) load(ctx context.Context, refresh bool) (manifest.Manifest, error) {
	m, skipped, err := manifest.LoadFile(c.cfg.ManifestPath())
	var missing error
	switch {
	case err == nil:
		c.logSkipped("remote", skipped)
	case errors.Is(err, manifest.ErrManifestNotFound) && refresh:
		c.logger.Info("no local manifest, fetching", "url", c.cfg.ManifestURL)
		if m, _, err = c.Refresh(ctx); err != nil {
			return nil, err
		}
	case errors.Is(err, manifest.ErrManifestNotFound):
		missing = err
		m = make(manifest.Manifest)
	default:
		return nil, err
	}

	local, skipped, err := manifest.LoadLocal(ctx, c.cfg.LocalDir, c.info)
	if err != nil {
		return nil, err
	}
	c.logSkipped("local", skipped)

	if missing != nil && len(local) == 0 {
		return nil, missing
	}
	m.Merge(local)
	return m, nil
}

func (c *Catalog) logSkipped(source string, skipped []error) {
	for _, err := range skipped {
		c.logger.Warn("skipping invalid manifest entry", "source", source, "error", err)
	}
}
