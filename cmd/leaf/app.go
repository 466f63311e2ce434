package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/ZebulonRouseFrantzich/leaf/internal/cache"
	"github.com/ZebulonRouseFrantzich/leaf/internal/config"
	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
	"github.com/ZebulonRouseFrantzich/leaf/internal/ui"
)

// app holds the process-wide collaborators of the CLI. Tests swap the
// loaders for isolated ones.
type app struct {
	stdout, stderr io.Writer
	printer        *ui.Printer
	verbose        bool

	loadConfig func() (*config.Config, error)
	detector   platform.Detector
	client     *http.Client
	home       func() (string, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		printer:    ui.NewPrinter(stdout, stderr),
		loadConfig: config.Load,
		detector:   platform.NewDetector(),
		home:       os.UserHomeDir,
	}
}

// deps resolves the configuration and platform and opens the log file. The
// returned function flushes the logger.
func (a *app) deps(ctx context.Context) (service.Deps, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return service.Deps{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return service.Deps{}, nil, err
	}

	info, err := a.detector.Detect(ctx)
	if err != nil {
		return service.Deps{}, nil, err
	}

	logger, err := logging.New(logging.Options{LogFile: cfg.LogFile(), Verbose: a.verbose})
	if err != nil {
		return service.Deps{}, nil, err
	}
	logger.Debug("resolved environment", "install_dir", cfg.InstallDir, "platform", info.Key)

	d := service.Deps{
		Config:   cfg,
		Platform: info,
		Logger:   logger,
		Client:   a.client,
	}
	if !a.verbose && ui.IsInteractive(a.stderr) {
		d.Progress = ui.NewProgressBar(a.stderr)
	}

	return d, func() { _ = logger.Sync() }, nil
}

// report prints err and returns the exit code for it. Warnings exit 0.
func (a *app) report(err error) int {
	if err == nil {
		return 0
	}

	if service.IsWarning(err) {
		a.printer.Warning("%v", err)
		return 0
	}

	var (
		netErr *cache.NetworkError
		locked *transaction.LockedError
	)
	switch {
	case errors.As(err, &locked):
		a.printer.Error("%v", err)
		a.printer.Error("If no other leaf is running, remove %s", locked.Path)
	case errors.Is(err, manifest.ErrManifestNotFound):
		a.printer.Error("%v", err)
		a.printer.Error("Run 'leaf update' to download package definitions")
	case errors.As(err, &netErr) && netErr.StatusCode == 0:
		a.printer.Error("%v", err)
		a.printer.Error("Check your network connection")
	default:
		a.printer.Error("%v", err)
	}
	return 1
}
