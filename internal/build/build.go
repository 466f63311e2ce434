// Package build materializes source packages: it unpacks the artifact into a
// scratch directory, runs the variant's shell steps from the source root,
// and copies the declared executables into the package directory.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
)

// Environment variables exported to every build step.
const (
	EnvPackage   = "LEAF_PACKAGE"
	EnvSourceDir = "LEAF_SOURCE_DIR"
	EnvPrefix    = "LEAF_PREFIX"
)

// Extractor unpacks an archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Request describes one source build.
type Request struct {
	Package     string
	ArchivePath string
	Commands    []string
	Executables []manifest.ExecutableSpec
	// DestDir receives the executables, at the same relative paths.
	DestDir string
	// ScratchRoot is where the scratch directory is created; empty means
	// the system temp dir.
	ScratchRoot string
}

// Builder runs source builds.
type Builder struct {
	extractor Extractor
	logger    logging.Logger
}

// NewBuilder creates a builder that unpacks sources with extractor.
func NewBuilder(extractor Extractor, logger logging.Logger) *Builder {
	return &Builder{
		extractor: extractor,
		logger:    logging.OrNop(logger),
	}
}

// Build runs req. The scratch directory is removed on every exit path.
// Steps run strictly in order; the first failing step stops the build and
// nothing is copied into DestDir.
func (b *Builder) Build(ctx context.Context, req Request) error {
	scratch, err := os.MkdirTemp(req.ScratchRoot, "build-"+req.Package+"-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			b.logger.Warn("failed to remove build scratch directory", "path", scratch, "error", rmErr)
		}
	}()

	if err := b.extractor.Extract(ctx, req.ArchivePath, scratch); err != nil {
		return fmt.Errorf("unpack sources: %w", err)
	}

	root, err := SourceRoot(scratch)
	if err != nil {
		return err
	}
	b.logger.Debug("building from source", "package", req.Package, "source_root", root, "steps", len(req.Commands))

	env := append(os.Environ(),
		EnvPackage+"="+req.Package,
		EnvSourceDir+"="+root,
		EnvPrefix+"="+req.DestDir,
	)

	for i, command := range req.Commands {
		if err := b.runStep(ctx, req.Package, i+1, command, root, env); err != nil {
			return err
		}
	}

	// Check everything before copying anything.
	for _, exe := range req.Executables {
		src := filepath.Join(root, filepath.FromSlash(exe.Path))
		info, err := os.Stat(src)
		if err != nil || info.IsDir() {
			return &MissingExecutableError{Package: req.Package, Path: exe.Path}
		}
	}

	for _, exe := range req.Executables {
		src := filepath.Join(root, filepath.FromSlash(exe.Path))
		dst := filepath.Join(req.DestDir, filepath.FromSlash(exe.Path))
		if err := copyExecutable(src, dst); err != nil {
			return err
		}
	}

	return nil
}

func (b *Builder) runStep(ctx context.Context, pkg string, step int, command, dir string, env []string) error {
	b.logger.Info("running build step", "package", pkg, "step", step, "command", command)

	cmd := shellCommand(ctx, command)
	cmd.Dir = dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	exitStatus := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitStatus = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		runErr = ctx.Err()
	}

	return &CommandError{
		Package:    pkg,
		Step:       step,
		Command:    command,
		ExitStatus: exitStatus,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Err:        runErr,
	}
}

// shellCommand wraps command in the platform shell.
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// SourceRoot returns dir's only subdirectory when it has exactly one,
// otherwise dir itself. Loose files next to that subdirectory are ignored.
func SourceRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read scratch directory: %w", err)
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		}
	}
	if len(subdirs) == 1 {
		return filepath.Join(dir, subdirs[0]), nil
	}
	return dir, nil
}

// copyExecutable copies src to dst and marks it executable.
func copyExecutable(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// Permission bits are a no-op on Windows.
	return os.Chmod(dst, 0755)
}
