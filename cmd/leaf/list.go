package main

import (
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed packages",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			d, done, err := a.deps(ctx)
			if err != nil {
				return err
			}
			defer done()

			svc, err := service.NewListService(d)
			if err != nil {
				return err
			}
			entries, err := svc.Execute(ctx)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				a.printer.Info("No packages installed")
				return nil
			}

			a.printer.Line("Installed packages:")
			for _, e := range entries {
				rec := e.Record
				a.printer.Line("  %s - %s (%s)", rec.Name, rec.Description, rec.Version)
				if e.UpdateAvailable {
					a.printer.Line("    %s", a.printer.Muted("update available: "+e.Available))
				}
			}
			return nil
		},
	}
}
