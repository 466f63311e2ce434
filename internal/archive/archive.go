// Package archive unpacks cached artifacts. The decoder is chosen purely
// from the filename suffix, and decoding runs on a worker goroutine that
// the caller waits on.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
)

// ErrUnsupportedFormat is returned for a filename with no known archive suffix.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Format identifies an archive encoding.
type Format string

const (
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
	FormatTarLz4 Format = "tar.lz4"
	FormatZip    Format = "zip"
)

// suffixes is checked in order; longer suffixes come first.
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".tar.zst", FormatTarZst},
	{".tar.lz4", FormatTarLz4},
	{".zip", FormatZip},
}

// Detect returns the format for name, or ErrUnsupportedFormat.
func Detect(name string) (Format, error) {
	lower := strings.ToLower(filepath.Base(name))
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

// Supported reports whether name has a known archive suffix.
func Supported(name string) bool {
	_, err := Detect(name)
	return err == nil
}

// Extractor handles archive extraction
type Extractor struct {
	logger logging.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger logging.Logger) *Extractor {
	return &Extractor{logger: logging.OrNop(logger)}
}

// Extract unpacks archivePath into destDir. The format is resolved before
// anything is written, so an unsupported suffix leaves destDir untouched.
// Every entry is written through an os.Root opened on destDir, so entries
// that would land outside it, directly or through extracted symlinks, fail
// the extraction.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) error {
	format, err := Detect(archivePath)
	if err != nil {
		return err
	}

	e.logger.Debug("extracting archive", "archive", archivePath, "dest", destDir, "format", string(format))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return fmt.Errorf("create dest dir: %w", err)
		}
		root, err := os.OpenRoot(destDir)
		if err != nil {
			return fmt.Errorf("open dest dir: %w", err)
		}
		defer root.Close()

		if format == FormatZip {
			return extractZip(gctx, archivePath, root)
		}
		return extractTar(gctx, format, archivePath, root)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}
