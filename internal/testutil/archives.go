package testutil

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Entry is one member of a fixture archive. A name ending in "/" is a
// directory; a non-empty Link makes a symlink.
type Entry struct {
	Name string
	Body string
	Mode int64
	Link string
}

// File is shorthand for a regular file entry.
func File(name, body string, mode int64) Entry {
	return Entry{Name: name, Body: body, Mode: mode}
}

// WriteTarGz writes a gzip-compressed tarball to path.
func WriteTarGz(t *testing.T, path string, entries ...Entry) string {
	t.Helper()
	return writeTar(t, path, entries, func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

// WriteTarXz writes an xz-compressed tarball to path.
func WriteTarXz(t *testing.T, path string, entries ...Entry) string {
	t.Helper()
	return writeTar(t, path, entries, func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})
}

// WriteTarZst writes a zstd-compressed tarball to path.
func WriteTarZst(t *testing.T, path string, entries ...Entry) string {
	t.Helper()
	return writeTar(t, path, entries, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

// WriteTarLz4 writes an lz4-compressed tarball to path.
func WriteTarLz4(t *testing.T, path string, entries ...Entry) string {
	t.Helper()
	return writeTar(t, path, entries, func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	})
}

func writeTar(t *testing.T, path string, entries []Entry, compress func(io.Writer) (io.WriteCloser, error)) string {
	t.Helper()

	f := create(t, path)
	defer f.Close()

	cw, err := compress(f)
	if err != nil {
		t.Fatalf("failed to create compressor: %v", err)
	}
	tw := tar.NewWriter(cw)

	for _, e := range entries {
		header := &tar.Header{Name: e.Name, Mode: modeOr(e.Mode, 0644)}
		switch {
		case strings.HasSuffix(e.Name, "/"):
			header.Typeflag = tar.TypeDir
			header.Mode = modeOr(e.Mode, 0755)
		case e.Link != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = e.Link
		default:
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(e.Body))
		}

		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.Name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.Name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("failed to close compressor: %v", err)
	}
	return path
}

// WriteZip writes a zip archive to path.
func WriteZip(t *testing.T, path string, entries ...Entry) string {
	t.Helper()

	f := create(t, path)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		switch {
		case strings.HasSuffix(e.Name, "/"):
			header.SetMode(os.ModeDir | os.FileMode(modeOr(e.Mode, 0755)))
		case e.Link != "":
			header.SetMode(os.ModeSymlink | 0777)
		default:
			header.SetMode(os.FileMode(modeOr(e.Mode, 0644)))
		}

		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", e.Name, err)
		}
		body := e.Body
		if e.Link != "" {
			body = e.Link
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return path
}

func create(t *testing.T, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create archive dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	return f
}

func modeOr(mode, fallback int64) int64 {
	if mode == 0 {
		return fallback
	}
	return mode
}
