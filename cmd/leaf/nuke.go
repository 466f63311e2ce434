package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newNukeCmd(a *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "nuke",
		Short: "Remove all packages and leaf itself (DESTRUCTIVE)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				a.printer.Error("This will completely remove all packages and Leaf itself!")
				a.printer.Error("This action cannot be undone.")
				a.printer.Error("")
				a.printer.Error("If you're sure, run: leaf nuke --confirmed")
				return nil
			}

			ctx := cmd.Context()
			d, done, err := a.deps(ctx)
			if err != nil {
				return err
			}
			defer done()

			svc, err := service.NewNukeService(d)
			if err != nil {
				return err
			}

			a.printer.Warning("Removing all packages and Leaf itself...")
			res, err := svc.Execute(ctx, service.NukeRequest{Confirmed: confirmed})
			if err != nil {
				return err
			}

			for _, alias := range res.Unlinked {
				a.printer.Info("Removed symlink: %s", filepath.Join(d.Config.BinDir, alias))
			}
			a.printer.Info("Removed leaf directory: %s", res.InstallDir)
			a.printer.Success("Leaf and all packages have been removed")
			a.printer.Info("To complete the uninstallation, remove the executable:")
			a.printer.Info("  rm %s", filepath.Join(d.Config.BinDir, "leaf"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "confirmed", false, "Confirm removal of everything leaf installed")
	return cmd
}
