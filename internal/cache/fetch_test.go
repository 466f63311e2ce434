package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

type recordingProgress struct {
	mu       sync.Mutex
	name     string
	total    int64
	added    int64
	finished bool
}

func (r *recordingProgress) Start(name string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.total = name, total
}

func (r *recordingProgress) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added += n
}

func (r *recordingProgress) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func TestFetcher_Fetch(t *testing.T) {
	const body = "artifact bytes"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("unexpected User-Agent: %s", got)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="tool.tar.gz"`)
		w.Write([]byte(body))
	}))
	defer server.Close()

	cacheDir := filepath.Join(t.TempDir(), "cache")
	progress := &recordingProgress{}
	f := NewFetcher(cacheDir, platform.LinuxX8664, WithProgress(progress))

	res, err := f.Fetch(context.Background(), server.URL+"/download")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Hit {
		t.Error("first fetch reported a cache hit")
	}
	if res.Filename != "tool.tar.gz" {
		t.Errorf("Filename = %q, want tool.tar.gz", res.Filename)
	}
	if res.Path != filepath.Join(cacheDir, "tool.tar.gz") {
		t.Errorf("Path = %q", res.Path)
	}

	content, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(content) != body {
		t.Errorf("content = %q, want %q", content, body)
	}

	if progress.name != "tool.tar.gz" || progress.total != int64(len(body)) || progress.added != int64(len(body)) || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}

	entries, _ := os.ReadDir(cacheDir)
	if len(entries) != 1 {
		t.Errorf("cache dir has %d entries, want 1 (no leftover temp files)", len(entries))
	}
}

func TestFetcher_CacheHit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	cached := filepath.Join(cacheDir, "tool.zip")
	if err := os.WriteFile(cached, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(cacheDir, platform.LinuxX8664)
	res, err := f.Fetch(context.Background(), server.URL+"/releases/tool.zip")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.Hit {
		t.Error("expected cache hit")
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}

	content, _ := os.ReadFile(cached)
	if string(content) != "stale" {
		t.Errorf("cached file was overwritten: %q", content)
	}
}

func TestFetcher_SharedArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="shared.tgz"`)
		w.Write([]byte("shared"))
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir(), platform.LinuxX8664)

	first, err := f.Fetch(context.Background(), server.URL+"/a")
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	second, err := f.Fetch(context.Background(), server.URL+"/b")
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}

	if first.Hit || !second.Hit {
		t.Errorf("Hit = %v, %v; want false, true", first.Hit, second.Hit)
	}
	if first.Path != second.Path {
		t.Errorf("paths differ: %s vs %s", first.Path, second.Path)
	}
}

func TestFetcher_WindowsSanitizesName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="tool:v1.zip"`)
		w.Write([]byte("x"))
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir(), platform.WindowsX8664)
	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Filename != "tool_v1.zip" {
		t.Errorf("Filename = %q, want tool_v1.zip", res.Filename)
	}
}

func TestFetcher_HTTPError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			cacheDir := t.TempDir()
			_, err := NewFetcher(cacheDir, platform.LinuxX8664).Fetch(context.Background(), server.URL+"/tool.zip")

			var netErr *NetworkError
			if !errors.As(err, &netErr) {
				t.Fatalf("error = %v, want *NetworkError", err)
			}
			if netErr.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", netErr.StatusCode, status)
			}
			if entries, _ := os.ReadDir(cacheDir); len(entries) != 0 {
				t.Errorf("cache dir has %d entries after failure", len(entries))
			}
		})
	}
}

func TestFetcher_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte(strings.Repeat("x", 10)))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	_, err := NewFetcher(cacheDir, platform.LinuxX8664).Fetch(context.Background(), server.URL+"/tool.zip")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if entries, _ := os.ReadDir(cacheDir); len(entries) != 0 {
		t.Errorf("partial download left %d entries in cache", len(entries))
	}
}

func TestFetcher_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewFetcher(t.TempDir(), platform.LinuxX8664).Fetch(context.Background(), url+"/tool.zip")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", netErr.StatusCode)
	}
}

func TestFetcher_IOError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	// A regular file where the cache directory should be.
	blocker := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFetcher(blocker, platform.LinuxX8664).Fetch(context.Background(), server.URL+"/tool.zip")
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error = %v, want *IOError", err)
	}
}

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Digest(path)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	sum := blake3.Sum256([]byte("abc"))
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("Digest() = %s, want %s", got, want)
	}

	if _, err := Digest(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
