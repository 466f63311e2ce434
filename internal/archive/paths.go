package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// entryName converts an archive entry name into a path relative to the
// extraction root, rejecting absolute names and names that climb out of it.
func entryName(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return rel, nil
}

// checkLinkTarget rejects symlinks whose target text is absolute or climbs
// out of the extraction root. Chains through links already on disk are
// caught by the os.Root every entry is written through.
func checkLinkTarget(rel, linkname string) error {
	if filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") || filepath.VolumeName(linkname) != "" {
		return fmt.Errorf("illegal symlink target: %s -> %s", rel, linkname)
	}
	if !filepath.IsLocal(filepath.Join(filepath.Dir(rel), filepath.FromSlash(linkname))) {
		return fmt.Errorf("illegal symlink target: %s -> %s", rel, linkname)
	}
	return nil
}

// writeFile streams an entry into rel under root with mode, creating parent
// directories.
func writeFile(root *os.Root, rel string, mode os.FileMode, copyFn func(f *os.File) error) error {
	if err := root.MkdirAll(filepath.Dir(rel), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", rel, err)
	}

	// Ensure the owner can always rewrite what it extracted.
	perm := mode.Perm() | 0600

	// Replace whatever an earlier entry left at this path.
	if info, err := root.Lstat(rel); err == nil && !info.IsDir() {
		root.Remove(rel)
	}

	outFile, err := root.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", rel, err)
	}

	if err := copyFn(outFile); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", rel, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", rel, err)
	}

	// OpenFile honours the umask; apply the archive's bits explicitly.
	return root.Chmod(rel, perm)
}

// writeSymlink creates rel -> linkname under root, replacing an earlier entry.
func writeSymlink(root *os.Root, rel, linkname string) error {
	if err := checkLinkTarget(rel, linkname); err != nil {
		return err
	}
	if err := root.MkdirAll(filepath.Dir(rel), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", rel, err)
	}
	root.Remove(rel)
	if err := root.Symlink(linkname, rel); err != nil {
		return fmt.Errorf("create symlink %s: %w", rel, err)
	}
	return nil
}
