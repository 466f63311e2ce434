package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/service"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search available packages",
		Long: `Search available packages by name, description and tags.

A term containing *, ?, [ or { is matched as a glob against package names.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			term := args[0]

			d, done, err := a.deps(ctx)
			if err != nil {
				return err
			}
			defer done()

			svc, err := service.NewSearchService(d)
			if err != nil {
				return err
			}
			hits, err := svc.Execute(ctx, term)
			if err != nil {
				return err
			}

			if len(hits) == 0 {
				a.printer.Info("No packages found matching '%s'", term)
				return nil
			}

			a.printer.Line("Found %d package(s):", len(hits))
			for _, h := range hits {
				marker := ""
				if h.Installed {
					marker = " [INSTALLED]"
				}
				a.printer.Line("  %s%s - %s (%s)", h.Name, marker, h.Package.Description, h.Package.Version)
				if len(h.Package.Tags) > 0 {
					a.printer.Line("    %s", a.printer.Muted("Tags: "+strings.Join(h.Package.Tags, ", ")))
				}
			}
			return nil
		},
	}
}
