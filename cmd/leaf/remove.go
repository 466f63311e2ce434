package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <package>",
		Aliases: []string{"uninstall", "rm"},
		Short:   "Remove an installed package",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemove(cmd, args[0])
		},
	}
}

func (a *app) runRemove(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	d, done, err := a.deps(ctx)
	if err != nil {
		return err
	}
	defer done()

	svc, err := service.NewRemoveService(d)
	if err != nil {
		return err
	}

	res, err := svc.Execute(ctx, service.RemoveRequest{Name: name})
	if errors.Is(err, service.ErrNotInstalled) {
		a.printer.Warning("Package '%s' is not installed", name)
		return nil
	}
	if err != nil {
		return err
	}

	for _, alias := range res.Unlinked {
		a.printer.Step("Unlinked %s", alias)
	}
	a.printer.Success("Successfully removed %s", name)
	return nil
}
