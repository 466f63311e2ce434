package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// openTarStream wraps r in the decompressor for format.
func openTarStream(format Format, r io.Reader) (io.Reader, func(), error) {
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return gz, func() { gz.Close() }, nil

	case FormatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create xz reader: %w", err)
		}
		return xzr, func() {}, nil

	case FormatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return zr, zr.Close, nil

	case FormatTarLz4:
		return lz4.NewReader(r), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// extractTar decodes a compressed tarball into root.
func extractTar(ctx context.Context, format Format, archivePath string, root *os.Root) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	stream, closeStream, err := openTarStream(format, archiveFile)
	if err != nil {
		return err
	}
	defer closeStream()

	tarReader := tar.NewReader(stream)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		rel, err := entryName(header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(rel, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", rel, err)
			}

		case tar.TypeReg:
			err := writeFile(root, rel, os.FileMode(header.Mode), func(f *os.File) error {
				_, err := io.Copy(f, tarReader)
				return err
			})
			if err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := writeSymlink(root, rel, header.Linkname); err != nil {
				return err
			}

		case tar.TypeLink:
			source, err := entryName(header.Linkname)
			if err != nil {
				return err
			}
			if err := root.MkdirAll(filepath.Dir(rel), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", rel, err)
			}
			root.Remove(rel)
			if err := root.Link(source, rel); err != nil {
				return fmt.Errorf("create hard link %s: %w", rel, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}
}
