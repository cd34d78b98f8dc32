package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dropsort/internal/orchestrator"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var organizeExisting bool

	rootCmd := &cobra.Command{
		Use:   "dropsort [directory]",
		Short: "Sort new files in a directory into category folders",
		Long: `dropsort watches a directory (default ~/Downloads) and moves every new file
into a subfolder named after its category, chosen by file extension.
Files are moved only after they stop changing. Name clashes get a " (N)" suffix.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := orchestrator.Options{
				ConfigPath:       configFlag,
				LogLevel:         logLevel,
				OrganizeExisting: organizeExisting,
				Version:          version,
				LogWriter:        cmd.ErrOrStderr(),
			}
			if len(args) == 1 {
				opts.WatchDir = args[0]
			}
			return runWatch(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.toml, .yaml or .json)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&organizeExisting, "organize-existing", false, "Also sort files already in the directory at startup")

	rootCmd.AddCommand(newSampleConfigCommand())
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newJournalCommand(&configFlag))

	return rootCmd
}

// runWatch runs a session until SIGINT or SIGTERM.
func runWatch(cmd *cobra.Command, opts orchestrator.Options) error {
	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	o, err := orchestrator.New(opts)
	if err != nil {
		return err
	}

	summary, err := o.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.PrintSummary())
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
