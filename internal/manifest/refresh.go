package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/leaf/internal/cache"
	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

const (
	// DefaultURL is the remote manifest location.
	DefaultURL = "https://raw.githubusercontent.com/ktauchathuranga/leaf/main/packages.json"

	refreshTimeout = 60 * time.Second
	// maxManifestSize caps the body read from the remote.
	maxManifestSize = 32 << 20
)

// Refresher downloads the remote manifest and replaces the local copy.
type Refresher struct {
	client    *http.Client
	url       string
	userAgent string
	logger    logging.Logger
}

// NewRefresher creates a refresher for url. A nil client gets a default one.
func NewRefresher(url, userAgent string, client *http.Client, logger logging.Logger) *Refresher {
	if client == nil {
		client = &http.Client{Timeout: refreshTimeout}
	}
	if url == "" {
		url = DefaultURL
	}
	if userAgent == "" {
		userAgent = cache.DefaultUserAgent
	}
	return &Refresher{
		client:    client,
		url:       url,
		userAgent: userAgent,
		logger:    logging.OrNop(logger),
	}
}

// Refresh fetches the remote manifest and, when it validates, writes it
// atomically to dest. On any failure dest is left untouched. The parsed
// manifest and the entries that were skipped are returned.
func (r *Refresher) Refresh(ctx context.Context, dest string) (Manifest, []error, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, nil, &cache.NetworkError{URL: r.url, Err: err}
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	r.logger.Debug("refreshing manifest", "url", r.url)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, &cache.NetworkError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &cache.NetworkError{URL: r.url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, nil, &cache.NetworkError{URL: r.url, Err: fmt.Errorf("read body: %w", err)}
	}

	// Strict JSON here: the remote copy is what every later command parses.
	m, skipped, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	if err := transaction.WriteFileAtomic(dest, data, 0644); err != nil {
		return nil, nil, fmt.Errorf("save manifest: %w", err)
	}

	r.logger.Info("manifest refreshed", "url", r.url, "packages", len(m), "skipped", len(skipped))
	return m, skipped, nil
}
