package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZebulonRouseFrantzich/leaf/internal/archive"
	"github.com/ZebulonRouseFrantzich/leaf/internal/build"
	"github.com/ZebulonRouseFrantzich/leaf/internal/cache"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/state"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
	"github.com/ZebulonRouseFrantzich/leaf/internal/verify"
)

// InstallService installs one package.
type InstallService struct {
	*env
	fetcher   *cache.Fetcher
	verifier  *verify.Verifier
	extractor *archive.Extractor
	builder   *build.Builder
}

// NewInstallService wires the install pipeline from d.
func NewInstallService(d Deps) (*InstallService, error) {
	e, err := newEnv(d)
	if err != nil {
		return nil, err
	}

	opts := []cache.Option{
		cache.WithUserAgent(e.cfg.UserAgent),
		cache.WithLogger(e.logger),
		cache.WithProgress(d.Progress),
	}
	if d.Client != nil {
		opts = append(opts, cache.WithClient(d.Client))
	}
	extractor := archive.NewExtractor(e.logger)

	return &InstallService{
		env:       e,
		fetcher:   cache.NewFetcher(e.cfg.CacheDir, e.key(), opts...),
		verifier:  verify.NewVerifier(e.cfg.KeyringDir),
		extractor: extractor,
		builder:   build.NewBuilder(extractor, e.logger),
	}, nil
}

// InstallRequest names the package to install.
type InstallRequest struct {
	Name string
}

// InstallResult describes a completed install.
type InstallResult struct {
	Record *state.Record
	// Skipped lists aliases whose executable was missing from the package.
	Skipped []string
	// CacheHit reports whether the artifact came from the download cache.
	CacheHit bool
	// ReplacedOrphan reports whether a package directory without a record
	// was replaced.
	ReplacedOrphan bool
}

// Execute runs the install pipeline. Materialized files go to a private
// staging directory and move into packages/<name> in one rename; the record
// is written last, so a failure at any step leaves the package not installed.
func (s *InstallService) Execute(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	name := req.Name
	if err := state.ValidateName(name); err != nil {
		return nil, err
	}

	// Checked before locking so an installed package sees no mutation at all.
	if s.store.IsInstalled(name) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInstalled, name)
	}

	lock, err := s.begin(ctx, string(transaction.OperationInstall), name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	if s.store.IsInstalled(name) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInstalled, name)
	}

	// 1. Resolve the variant for this platform.
	m, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	pkg, variant, err := s.variantFor(m, name)
	if err != nil {
		return nil, err
	}

	// 2. Fetch and verify the artifact.
	s.transition(name, StateFetching, "url", variant.URL)
	fetched, err := s.fetcher.Fetch(ctx, variant.URL)
	if err != nil {
		return nil, err
	}
	if err := s.verify(ctx, name, variant, fetched); err != nil {
		return nil, err
	}

	// 3. Materialize into a staging directory.
	stage, err := transaction.NewStage(s.cfg.PackagesDir)
	if err != nil {
		return nil, err
	}
	journal := transaction.New(transaction.OperationInstall, name)
	journal.StageDir = stage.Dir()
	if err := journal.Update(s.cfg.TmpDir, transaction.StateInProgress, nil); err != nil {
		_ = stage.Discard()
		return nil, err
	}
	defer func() {
		if err := stage.Discard(); err != nil {
			s.logger.Warn("failed to discard staging directory", "package", name, "error", err)
		}
		if err := journal.Done(s.cfg.TmpDir); err != nil {
			s.logger.Warn("failed to remove journal", "package", name, "error", err)
		}
	}()

	s.transition(name, StateMaterializing, "type", string(variant.Kind))
	executables, err := s.materialize(ctx, name, variant, fetched, stage.Dir())
	if err != nil {
		_ = journal.Update(s.cfg.TmpDir, transaction.StateFailed, err)
		return nil, err
	}
	files, err := listFiles(stage.Dir())
	if err != nil {
		return nil, err
	}

	result := &InstallResult{CacheHit: fetched.Hit}
	pkgDir := s.store.PackageDir(name)

	// A directory without a record is left over from an interrupted install.
	if _, err := os.Lstat(pkgDir); err == nil {
		s.logger.Warn("replacing orphaned package directory", "package", name, "path", pkgDir)
		if err := s.store.RemoveDir(name); err != nil {
			return nil, err
		}
		result.ReplacedOrphan = true
	}
	if err := stage.Commit(pkgDir); err != nil {
		return nil, err
	}

	// 4. Link executables.
	s.transition(name, StateLinking, "executables", len(executables))
	linked, err := s.linker.Link(pkgDir, executables)
	if err != nil {
		return nil, err
	}
	result.Skipped = linked.Skipped

	// 5. Record.
	rec := state.NewRecord(name, pkg, s.key(), variant, s.clock.Now())
	rec.Executables = executables
	rec.Aliases = linked.Linked
	rec.InstalledFiles = files
	rec.Artifact = fetched.Filename
	if digest, err := cache.Digest(fetched.Path); err == nil {
		rec.ArtifactBLAKE3 = digest
	} else {
		s.logger.Warn("failed to digest artifact", "package", name, "error", err)
	}

	if err := s.store.Write(rec); err != nil {
		return nil, err
	}
	s.transition(name, StateRecorded, "version", rec.Version)

	result.Record = rec
	return result, nil
}

// verify checks the optional checksum and signature. An artifact that fails
// is evicted from the cache so the next attempt downloads it again.
func (s *InstallService) verify(ctx context.Context, name string, variant *manifest.Variant, fetched *cache.Result) error {
	if variant.SHA256 == "" && variant.Signature == "" {
		return nil
	}
	s.transition(name, StateVerifying)

	var err error
	if variant.SHA256 != "" {
		err = s.verifier.SHA256(fetched.Path, variant.SHA256)
	}
	if err == nil && variant.Signature != "" {
		var sig *cache.Result
		if sig, err = s.fetcher.Fetch(ctx, variant.Signature); err != nil {
			return err
		}
		err = s.verifier.Signature(fetched.Path, sig.Path)
	}

	var verr *verify.Error
	if errors.As(err, &verr) {
		if rmErr := os.Remove(fetched.Path); rmErr != nil {
			s.logger.Warn("failed to evict artifact", "path", fetched.Path, "error", rmErr)
		}
	}
	return err
}

// materialize fills dir according to the variant kind and returns the
// executables to link.
func (s *InstallService) materialize(ctx context.Context, name string, variant *manifest.Variant, fetched *cache.Result, dir string) ([]manifest.ExecutableSpec, error) {
	switch variant.Kind {
	case manifest.KindArchive:
		if err := s.extractor.Extract(ctx, fetched.Path, dir); err != nil {
			return nil, err
		}
		return variant.Executables, nil

	case manifest.KindBuild:
		err := s.builder.Build(ctx, build.Request{
			Package:     name,
			ArchivePath: fetched.Path,
			Commands:    variant.BuildCommands,
			Executables: variant.Executables,
			DestDir:     dir,
			ScratchRoot: s.cfg.TmpDir,
		})
		if err != nil {
			return nil, err
		}
		return variant.Executables, nil

	case manifest.KindBinary:
		return placeBinary(fetched, variant.Executables, dir)

	default:
		return nil, fmt.Errorf("package %s: unknown package type %q", name, variant.Kind)
	}
}

// placeBinary copies a raw artifact into dir. It takes the path of the
// first declared executable, or its cache filename when none is declared.
func placeBinary(fetched *cache.Result, executables []manifest.ExecutableSpec, dir string) ([]manifest.ExecutableSpec, error) {
	if len(executables) == 0 {
		executables = []manifest.ExecutableSpec{{Path: fetched.Filename}}
	}
	dst := filepath.Join(dir, filepath.FromSlash(executables[0].Path))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", executables[0].Path, err)
	}
	src, err := os.Open(fetched.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, fmt.Errorf("copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", dst, err)
	}
	// Chmod again in case the umask stripped the execute bits.
	if err := os.Chmod(dst, 0755); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", dst, err)
	}
	return executables, nil
}

// listFiles returns the slash-separated paths of every non-directory entry
// below dir, sorted.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list installed files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
