package main

import (
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update package definitions",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			d, done, err := a.deps(ctx)
			if err != nil {
				return err
			}
			defer done()

			svc, err := service.NewUpdateService(d)
			if err != nil {
				return err
			}

			a.printer.Info("Updating package definitions...")
			res, err := svc.Execute(ctx)
			if err != nil {
				return err
			}

			for _, skipped := range res.Skipped {
				a.printer.Warning("Skipped invalid entry: %v", skipped)
			}
			a.printer.Success("Package definitions updated successfully")
			a.printer.Info("%d package(s), %d available for %s", res.Packages, res.Available, d.Platform.Key)
			return nil
		},
	}
}
