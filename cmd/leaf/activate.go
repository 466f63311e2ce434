package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/leaf/internal/shell"
)

func newActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "activate <bash|zsh|fish>",
		Short:     "Print shell code that puts the leaf bin directory on PATH",
		Args:      exactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := shell.ParseShellType(args[0])
			if err != nil {
				return err
			}
			mgr, err := a.shellManager()
			if err != nil {
				return err
			}
			script, err := mgr.Activate(sh)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, script)
			return nil
		},
	}
}

func newSetupShellCmd(a *app) *cobra.Command {
	var (
		opts     shell.SetupOptions
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "setup-shell [bash|zsh|fish]",
		Short: "Add leaf activation to your shell's rc file",
		Long: `Add leaf activation to your shell's rc file.

Without an argument the shell is detected from $SHELL or the parent process.
Running it again does nothing once the activation line is present.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.shellManager()
			if err != nil {
				return err
			}
			opts.Backup = !noBackup

			var res *shell.SetupResult
			if len(args) == 1 {
				sh, perr := shell.ParseShellType(args[0])
				if perr != nil {
					return perr
				}
				res, err = mgr.SetupIntegration(sh, opts)
			} else {
				res, err = mgr.DetectAndSetup(opts)
			}
			if err != nil {
				return err
			}

			switch {
			case res.AlreadyPresent && !res.Added:
				a.printer.Info("Shell integration already present in %s", res.RCFile)
			case opts.DryRun:
				a.printer.Info("Would add to %s:", res.RCFile)
				a.printer.Line("  %s", res.ActivationCommand)
			default:
				if res.BackupPath != "" {
					a.printer.Info("Backed up %s to %s", res.RCFile, res.BackupPath)
				}
				a.printer.Success("Added leaf activation to %s", res.RCFile)
				a.printer.Info("Restart your shell or run: %s", res.ActivationCommand)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Force, "force", "f", false, "Add the activation line even if one is present")
	flags.BoolVar(&noBackup, "no-backup", false, "Do not back up the rc file before changing it")
	flags.BoolVarP(&opts.DryRun, "dry-run", "n", false, "Show what would change without writing")
	return cmd
}

func (a *app) shellManager() (*shell.Manager, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	home, err := a.home()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return shell.NewManager(shell.Config{BinDir: cfg.BinDir, Home: home})
}
