// Package link exposes package executables in the shared bin directory,
// as symlinks where the platform allows unprivileged ones and as copies
// elsewhere. Linking is idempotent, and unlinking only touches aliases that
// still belong to the package being removed.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
)

// DefaultUseSymlinks reports whether the running platform links by symlink.
func DefaultUseSymlinks() bool {
	return runtime.GOOS != "windows"
}

// Result lists what Link did, by alias.
type Result struct {
	Linked  []string
	Skipped []string
}

// Linker manages aliases in one bin directory.
type Linker struct {
	binDir      string
	useSymlinks bool
	logger      logging.Logger
}

// NewLinker creates a linker for binDir.
func NewLinker(binDir string, useSymlinks bool, logger logging.Logger) *Linker {
	if abs, err := filepath.Abs(binDir); err == nil {
		binDir = abs
	}
	return &Linker{
		binDir:      binDir,
		useSymlinks: useSymlinks,
		logger:      logging.OrNop(logger),
	}
}

// BinDir returns the managed directory.
func (l *Linker) BinDir() string {
	return l.binDir
}

// Link exposes each executable of the package installed at packageDir.
// Executables missing from packageDir are skipped with a warning. An
// existing alias is replaced; running Link twice yields the same state.
func (l *Linker) Link(packageDir string, specs []manifest.ExecutableSpec) (*Result, error) {
	if err := os.MkdirAll(l.binDir, 0755); err != nil {
		return nil, fmt.Errorf("create bin directory: %w", err)
	}
	// Symlinks resolve relative to binDir, so targets must be absolute.
	packageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return nil, fmt.Errorf("resolve package directory: %w", err)
	}

	result := &Result{}
	for _, spec := range specs {
		alias := spec.Alias()
		target := filepath.Join(packageDir, filepath.FromSlash(spec.Path))

		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			l.logger.Warn("executable not found, skipping", "path", spec.Path, "alias", alias)
			result.Skipped = append(result.Skipped, alias)
			continue
		}

		aliasPath := filepath.Join(l.binDir, alias)
		if err := l.clear(aliasPath, packageDir, target); err != nil {
			return result, err
		}

		if l.useSymlinks {
			if err := os.Symlink(target, aliasPath); err != nil {
				return result, fmt.Errorf("link %s: %w", alias, err)
			}
		} else if err := copyFile(target, aliasPath); err != nil {
			return result, fmt.Errorf("copy %s: %w", alias, err)
		}

		l.logger.Debug("linked executable", "alias", alias, "target", target)
		result.Linked = append(result.Linked, alias)
	}

	return result, nil
}

// clear removes whatever sits at aliasPath so a fresh alias can be created.
func (l *Linker) clear(aliasPath, packageDir, target string) error {
	info, err := os.Lstat(aliasPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect %s: %w", aliasPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot link %s: a directory is in the way", aliasPath)
	}

	if dest, ok := l.resolve(aliasPath); ok && !within(dest, packageDir) {
		l.logger.Warn("replacing alias owned by another location", "alias", filepath.Base(aliasPath), "previous", dest, "target", target)
	}

	if err := os.Remove(aliasPath); err != nil {
		return fmt.Errorf("remove existing %s: %w", aliasPath, err)
	}
	return nil
}

// Unlink removes the package's aliases. An alias that now resolves
// somewhere else, or whose copy no longer matches the package's file, is
// left alone.
func (l *Linker) Unlink(packageDir string, specs []manifest.ExecutableSpec) ([]string, error) {
	var removed []string
	for _, spec := range specs {
		alias := spec.Alias()
		aliasPath := filepath.Join(l.binDir, alias)

		info, err := os.Lstat(aliasPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("inspect %s: %w", aliasPath, err)
		}

		if !l.owns(aliasPath, info, packageDir, spec) {
			l.logger.Warn("alias belongs to another package, leaving it", "alias", alias)
			continue
		}

		if err := os.Remove(aliasPath); err != nil {
			return removed, fmt.Errorf("remove %s: %w", aliasPath, err)
		}
		removed = append(removed, alias)
	}
	return removed, nil
}

func (l *Linker) owns(aliasPath string, info os.FileInfo, packageDir string, spec manifest.ExecutableSpec) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		dest, ok := l.resolve(aliasPath)
		return ok && within(dest, packageDir)
	}
	if !info.Mode().IsRegular() {
		return false
	}
	same, err := sameContent(aliasPath, filepath.Join(packageDir, filepath.FromSlash(spec.Path)))
	return err == nil && same
}

// PruneInto removes every symlink in the bin directory that resolves into
// dir and returns the removed aliases.
func (l *Linker) PruneInto(dir string) ([]string, error) {
	entries, err := os.ReadDir(l.binDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bin directory: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if e.Type()&os.ModeSymlink == 0 {
			continue
		}
		aliasPath := filepath.Join(l.binDir, e.Name())
		dest, ok := l.resolve(aliasPath)
		if !ok || !within(dest, dir) {
			continue
		}
		if err := os.Remove(aliasPath); err != nil {
			return removed, fmt.Errorf("remove %s: %w", aliasPath, err)
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}

// resolve returns the cleaned destination of the symlink at aliasPath.
func (l *Linker) resolve(aliasPath string) (string, bool) {
	dest, err := os.Readlink(aliasPath)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(aliasPath), dest)
	}
	return filepath.Clean(dest), true
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	path, dir = absOrClean(path), absOrClean(dir)
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}

func absOrClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func sameContent(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}
