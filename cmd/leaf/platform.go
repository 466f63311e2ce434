package main

import (
	"github.com/spf13/cobra"
)

func newPlatformCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Show the platform key used to select package variants",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.detector.Detect(cmd.Context())
			if err != nil {
				return err
			}

			a.printer.Line("Platform: %s", info.Key)
			a.printer.Line("OS/Arch:  %s/%s", info.OS, info.Arch)
			if distro := info.GetDistro(); distro != nil {
				a.printer.Line("Distro:   %s %s (%s family)", distro.ID, distro.Version, distro.Family)
			}
			return nil
		},
	}
}
