package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dropsort/internal/audit"
	"dropsort/internal/config"
)

func newJournalCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent sessions recorded in the audit journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := audit.ReadEvents(cfg.Audit.Path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(out, "No journal at %s\n", cfg.Audit.Path)
					return nil
				}
				return err
			}
			if n := len(result.CorruptLines); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d unreadable journal lines\n", n)
			}

			sessions := audit.Sessions(result.Events)
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[len(sessions)-limit:]
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				duration := "-"
				if s.End != nil {
					duration = s.Duration().Round(time.Second).String()
				}
				rows = append(rows, []string{
					shortID(s.SessionID),
					humanize.Time(s.Start),
					s.WatchDirectory,
					s.Status(),
					strconv.Itoa(s.Moves),
					strconv.Itoa(s.Errors),
					duration,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Session", "Started", "Directory", "Status", "Moves", "Errors", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Show at most this many recent sessions (0 for all)")
	return cmd
}

func shortID(id audit.SessionID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
