package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// run executes the command line in args and returns the process exit code.
func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	var usage *usageError
	if errors.As(err, &usage) {
		a.printer.Error("%v", usage.err)
		a.printer.Error("Run '%s --help' for usage", usage.cmd)
		return 2
	}
	return a.report(err)
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "leaf",
		Short:         "A simple, sudo-free package manager",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{cmd: c.CommandPath(), err: err}
	})

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	cmd.AddCommand(newInstallCmd(a))
	cmd.AddCommand(newRemoveCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newUpdateCmd(a))
	cmd.AddCommand(newNukeCmd(a))
	activateCmd := newActivateCmd(a)
	cmd.AddCommand(activateCmd)
	// activate never logs.
	hideInherited(activateCmd, "verbose")
	cmd.AddCommand(newSetupShellCmd(a))
	cmd.AddCommand(newPlatformCmd(a))

	return cmd
}

// usageError marks bad flags or arguments, which exit 2 instead of 1.
type usageError struct {
	cmd string
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{cmd: cmd.CommandPath(), err: err}
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs reported as a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &usageError{cmd: cmd.CommandPath(), err: err}
		}
		return nil
	}
}

// hideInherited hides persistent flags that mean nothing to cmd.
func hideInherited(cmd *cobra.Command, names ...string) {
	cmd.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		for _, name := range names {
			if f.Name == name {
				f.Hidden = true
			}
		}
	})
}
