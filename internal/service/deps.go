// Package service implements leaf's commands on top of the pipeline
// packages. Each command is a service with an Execute method; services share
// their collaborators through Deps, which carries the resolved configuration
// and platform explicitly.
//
// Install walks Absent → Fetching → Materializing → Linking → Recorded and
// remove walks Recorded → RecordDeleted → FilesDeleted; every transition is
// logged with "package" and "state" keys.
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ZebulonRouseFrantzich/leaf/internal/cache"
	"github.com/ZebulonRouseFrantzich/leaf/internal/config"
	"github.com/ZebulonRouseFrantzich/leaf/internal/link"
	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
	"github.com/ZebulonRouseFrantzich/leaf/internal/state"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

// Deps carries what every command needs. Config and Platform are required.
type Deps struct {
	Config   *config.Config
	Platform *platform.Info
	Logger   logging.Logger

	// Client is used for artifact and manifest downloads; nil selects the
	// defaults of each downloader.
	Client   *http.Client
	Progress cache.Progress
	Clock    Clock

	// UseSymlinks overrides the platform default when set.
	UseSymlinks *bool
}

// PackageState names a step of the per-package state machine.
type PackageState string

const (
	StateFetching      PackageState = "fetching"
	StateVerifying     PackageState = "verifying"
	StateMaterializing PackageState = "materializing"
	StateLinking       PackageState = "linking"
	StateRecorded      PackageState = "recorded"
	StateRecordDeleted PackageState = "record_deleted"
	StateFilesDeleted  PackageState = "files_deleted"
)

// env is Deps resolved into collaborators.
type env struct {
	cfg     *config.Config
	info    *platform.Info
	logger  logging.Logger
	clock   Clock
	store   *state.Store
	linker  *link.Linker
	catalog *Catalog
	client  *http.Client
}

func newEnv(d Deps) (*env, error) {
	if d.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if d.Platform == nil {
		return nil, fmt.Errorf("platform is required")
	}

	logger := logging.OrNop(d.Logger)
	clock := d.Clock
	if clock == nil {
		clock = RealClock{}
	}
	useSymlinks := link.DefaultUseSymlinks()
	if d.UseSymlinks != nil {
		useSymlinks = *d.UseSymlinks
	}

	return &env{
		cfg:     d.Config,
		info:    d.Platform,
		logger:  logger,
		clock:   clock,
		store:   state.NewStore(d.Config.PackagesDir, logger),
		linker:  link.NewLinker(d.Config.BinDir, useSymlinks, logger),
		catalog: newCatalog(d.Config, d.Platform, d.Client, logger),
		client:  d.Client,
	}, nil
}

func (e *env) key() platform.Key {
	return e.info.Key
}

func (e *env) transition(pkg string, st PackageState, keysAndValues ...interface{}) {
	e.logger.Info("package state changed", append([]interface{}{"package", pkg, "state", string(st)}, keysAndValues...)...)
}

// begin takes the install-root lock for op on pkg and sweeps what an
// interrupted run left behind. The caller releases the returned lock.
func (e *env) begin(ctx context.Context, op, pkg string) (*transaction.Lock, error) {
	lock, err := transaction.AcquireLock(ctx, e.cfg.TmpDir, op, pkg)
	if err != nil {
		return nil, err
	}

	swept, err := transaction.Recover(e.cfg.TmpDir, e.cfg.PackagesDir)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("recover interrupted operation: %w", err)
	}
	for _, j := range swept {
		e.logger.Warn("cleaned up interrupted operation",
			"package", j.Package, "operation", string(j.Operation), "state", string(j.State), "error", j.LastError)
	}

	return lock, nil
}

// installedSet returns the names that have a valid record.
func (e *env) installedSet() (map[string]bool, error) {
	records, err := e.store.List()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(records))
	for _, rec := range records {
		set[rec.Name] = true
	}
	return set, nil
}

// variantFor resolves name in m for the running platform.
func (e *env) variantFor(m manifest.Manifest, name string) (manifest.Package, *manifest.Variant, error) {
	pkg, err := m.Get(name)
	if err != nil {
		return manifest.Package{}, nil, err
	}
	variant, err := pkg.Variant(e.key())
	if err != nil {
		return manifest.Package{}, nil, fmt.Errorf("package %s: %w", name, err)
	}
	return pkg, variant, nil
}
