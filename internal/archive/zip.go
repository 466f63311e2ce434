package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// maxZipSymlinkTarget bounds how much of a symlink entry is read as its target.
const maxZipSymlinkTarget = 4096

// extractZip decodes a zip archive into root.
func extractZip(ctx context.Context, archivePath string, root *os.Root) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := entryName(file.Name)
		if err != nil {
			return err
		}

		mode := file.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(file.Name, "/"):
			if err := root.MkdirAll(rel, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", rel, err)
			}

		case mode&os.ModeSymlink != 0:
			if err := extractZipSymlink(file, root, rel); err != nil {
				return err
			}

		default:
			if err := extractZipFile(file, root, rel, mode); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractZipFile(file *zip.File, root *os.Root, rel string, mode os.FileMode) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()

	// Zips written on Windows carry no permission bits.
	if mode.Perm() == 0 {
		mode = 0644
	}

	return writeFile(root, rel, mode, func(f *os.File) error {
		_, err := io.Copy(f, rc)
		return err
	})
}

func extractZipSymlink(file *zip.File, root *os.Root, rel string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxZipSymlinkTarget))
	if err != nil {
		return fmt.Errorf("read symlink %s: %w", file.Name, err)
	}
	return writeSymlink(root, rel, string(data))
}
