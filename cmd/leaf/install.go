package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, args[0])
		},
	}
}

func (a *app) runInstall(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	d, done, err := a.deps(ctx)
	if err != nil {
		return err
	}
	defer done()

	svc, err := service.NewInstallService(d)
	if err != nil {
		return err
	}

	a.printer.Info("Installing %s...", name)
	res, err := svc.Execute(ctx, service.InstallRequest{Name: name})
	if errors.Is(err, service.ErrAlreadyInstalled) {
		a.printer.Warning("Package '%s' is already installed", name)
		return nil
	}
	if err != nil {
		return err
	}

	if res.CacheHit {
		a.printer.Info("Using cached download %s", res.Record.Artifact)
	}
	if res.ReplacedOrphan {
		a.printer.Warning("Replaced leftover files of an unfinished install")
	}
	for _, alias := range res.Skipped {
		a.printer.Warning("Executable for '%s' not found in package, skipped", alias)
	}
	for _, alias := range res.Record.Aliases {
		a.printer.Step("Linked %s", alias)
	}
	a.printer.Success("Successfully installed %s %s", name, res.Record.Version)
	return nil
}
