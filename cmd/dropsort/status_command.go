package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dropsort/internal/orchestrator"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status [directory]",
		Short: "Show where the files currently in the directory would be sorted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := orchestrator.Options{
				ConfigPath: *configFlag,
				LogLevel:   "error",
				LogWriter:  cmd.ErrOrStderr(),
			}
			if len(args) == 1 {
				opts.WatchDir = args[0]
			}

			o, err := orchestrator.New(opts)
			if err != nil {
				return err
			}
			status, err := o.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", status.Directory)
			if status.Locked {
				fmt.Fprintln(out, "A dropsort session is currently watching this directory.")
			}
			if status.Total == 0 {
				fmt.Fprintln(out, "Nothing to sort.")
			} else {
				rows := make([][]string, 0, len(status.ByCategory))
				for _, category := range status.Categories() {
					files := status.ByCategory[category]
					rows = append(rows, []string{category, strconv.Itoa(len(files)), preview(files, 3)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Category", "Files", "Examples"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "%d files would be sorted.\n", status.Total)
			}
			if len(status.Ignored) > 0 {
				fmt.Fprintf(out, "%d ignored: %s\n", len(status.Ignored), preview(status.Ignored, 5))
			}
			return nil
		},
	}
}

// preview joins up to n names and notes how many were left out.
func preview(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:n], ", ") + fmt.Sprintf(" (+%d more)", len(names)-n)
}
