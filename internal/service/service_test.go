package service

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/leaf/internal/config"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
	"github.com/ZebulonRouseFrantzich/leaf/internal/testutil"
)

var installTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const fooScript = "#!/bin/sh\necho foo\n"

// fixture is an isolated install root plus an artifact server.
type fixture struct {
	t      *testing.T
	cfg    *config.Config
	server *httptest.Server
	hits   atomic.Int32
	logs   *recordingLogger

	mu    sync.Mutex
	files map[string][]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	cfg := config.Defaults(filepath.Join(root, "leaf"), filepath.Join(root, "home"))
	cfg.AutoUpdate = false
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}

	f := &fixture{t: t, cfg: cfg, files: map[string][]byte{}, logs: &recordingLogger{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.mu.Lock()
		body, ok := f.files[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Config:   f.cfg,
		Platform: &platform.Info{Key: platform.LinuxX8664, OS: "linux", Arch: "amd64"},
		Logger:   f.logs,
		Client:   f.server.Client(),
		Clock:    FixedClock{Time: installTime},
	}
}

// serve publishes body at path on the fixture server.
func (f *fixture) serve(path string, body []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = body
	return f.server.URL + path
}

// serveTarGz builds a tar.gz from entries and serves it at path.
func (f *fixture) serveTarGz(path string, entries ...testutil.Entry) string {
	f.t.Helper()
	file := testutil.WriteTarGz(f.t, filepath.Join(f.t.TempDir(), filepath.Base(path)), entries...)
	data, err := os.ReadFile(file)
	if err != nil {
		f.t.Fatal(err)
	}
	return f.serve(path, data)
}

// writeManifest writes the local manifest copy, substituting {{server}}.
func (f *fixture) writeManifest(doc string) {
	f.t.Helper()
	doc = strings.ReplaceAll(doc, "{{server}}", f.server.URL)
	if err := os.WriteFile(f.cfg.ManifestPath(), []byte(doc), 0644); err != nil {
		f.t.Fatal(err)
	}
}

// scenarioA serves the foo tarball and writes its manifest.
func (f *fixture) scenarioA() {
	f.t.Helper()
	f.serveTarGz("/foo.tar.gz", testutil.File("bin/foo", fooScript, 0755))
	f.writeManifest(`{"foo":{"description":"d","version":"1.0","platforms":{"linux-x86_64":{"url":"{{server}}/foo.tar.gz","executables":["bin/foo"]}}}}`)
}

func (f *fixture) install(name string) *InstallResult {
	f.t.Helper()
	svc, err := NewInstallService(f.deps())
	if err != nil {
		f.t.Fatalf("NewInstallService() error = %v", err)
	}
	res, err := svc.Execute(f.t.Context(), InstallRequest{Name: name})
	if err != nil {
		f.t.Fatalf("install %s: %v", name, err)
	}
	return res
}

// snapshot captures a directory tree: file contents, symlink targets and
// directories. A missing root yields an empty snapshot.
func snapshot(t *testing.T, roots ...string) map[string]string {
	t.Helper()
	snap := map[string]string{}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return filepath.SkipDir
				}
				return err
			}
			switch {
			case d.Type()&fs.ModeSymlink != 0:
				target, _ := os.Readlink(path)
				snap[path] = "-> " + target
			case d.IsDir():
				snap[path] = "dir"
			default:
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				snap[path] = string(data)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("snapshot %s: %v", root, err)
		}
	}
	return snap
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("build steps need a POSIX shell")
	}
}

// recordingLogger keeps the "state" values of every entry.
type recordingLogger struct {
	mu     sync.Mutex
	states []string
	warns  []string
}

func (l *recordingLogger) record(msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i] == "state" && msg == "package state changed" {
			l.states = append(l.states, kv[i+1].(string))
		}
	}
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.record(msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.record(msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.record(msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...interface{}) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
	l.record(msg, kv)
}

func (l *recordingLogger) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = nil
	l.warns = nil
}
