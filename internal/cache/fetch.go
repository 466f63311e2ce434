package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "leaf-package-manager/1.0.0"
	// maxRedirects bounds redirect chains such as release asset hops
	maxRedirects = 10
)

// Progress receives download progress. Implementations must tolerate a
// negative total, which means the server sent no Content-Length.
type Progress interface {
	Start(name string, total int64)
	Add(n int64)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(string, int64) {}
func (noopProgress) Add(int64)           {}
func (noopProgress) Finish()             {}

// Result describes a fetched artifact.
type Result struct {
	// Path is the absolute path of the artifact in the cache.
	Path string
	// Filename is the sanitized cache key.
	Filename string
	// Hit reports whether the artifact was already cached.
	Hit bool
}

// Fetcher downloads artifacts into a cache directory.
type Fetcher struct {
	client    *http.Client
	cacheDir  string
	userAgent string
	key       platform.Key
	logger    logging.Logger
	progress  Progress
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrNop(l) }
}

// WithProgress sets the progress sink for new downloads.
func WithProgress(p Progress) Option {
	return func(f *Fetcher) {
		if p != nil {
			f.progress = p
		}
	}
}

// NewFetcher creates a fetcher that stores artifacts in cacheDir and
// sanitizes names for key.
func NewFetcher(cacheDir string, key platform.Key, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
		key:       key,
		logger:    logging.Nop(),
		progress:  noopProgress{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the cache directory.
func (f *Fetcher) Dir() string {
	return f.cacheDir
}

// Fetch downloads rawURL into the cache, or returns the existing entry when
// the derived filename is already present.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	// On a cache hit the body is closed unread.
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	name := Sanitize(DeriveFilename(resp.Header.Get("Content-Disposition"), u), f.key)
	dest := filepath.Join(f.cacheDir, name)

	if fileExists(dest) {
		f.logger.Debug("cache hit", "url", rawURL, "path", dest)
		return &Result{Path: dest, Filename: name, Hit: true}, nil
	}

	f.logger.Debug("downloading", "url", rawURL, "path", dest, "content_length", resp.ContentLength)
	if err := f.store(resp.Body, resp.ContentLength, rawURL, name, dest); err != nil {
		return nil, err
	}

	return &Result{Path: dest, Filename: name}, nil
}

// store streams body into dest through a synced temporary file.
func (f *Fetcher) store(body io.Reader, total int64, rawURL, name, dest string) error {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: f.cacheDir, Err: err}
	}

	tmp, err := os.CreateTemp(f.cacheDir, "."+name+".part-*")
	if err != nil {
		return &IOError{Op: "create", Path: dest, Err: err}
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	f.progress.Start(name, total)
	src := &countingReader{r: body, progress: f.progress}
	_, err = io.Copy(tmp, src)
	f.progress.Finish()
	if err != nil {
		if src.err != nil {
			return &NetworkError{URL: rawURL, Err: src.err}
		}
		return &IOError{Op: "write", Path: tmpPath, Err: err}
	}

	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return &IOError{Op: "rename", Path: dest, Err: err}
	}

	cleanupNeeded = false
	return nil
}

// countingReader forwards reads to progress and remembers read-side
// failures so they can be told apart from disk failures.
type countingReader struct {
	r        io.Reader
	progress Progress
	err      error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.progress.Add(int64(n))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		c.err = err
	}
	return n, err
}

// fileExists checks if a regular file exists at path
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
