package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var kindFlag string
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := history.Filter{Limit: limit}
			if strings.TrimSpace(kindFlag) != "" {
				kind, ok := history.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown job kind %q (want translate, burn, or extract)", kindFlag)
				}
				filter.Kind = kind
			}
			if strings.TrimSpace(statusFlag) != "" {
				status, ok := history.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown job status %q", statusFlag)
				}
				filter.Status = status
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(records))
			if stats, err := store.Stats(cmd.Context()); err == nil {
				fmt.Fprintln(out, formatStats(stats))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only show translate, burn, or extract jobs")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show jobs with this status")
	return cmd
}

var statsOrder = []history.Status{
	history.StatusRunning,
	history.StatusCompleted,
	history.StatusCompletedWithFallback,
	history.StatusCancelled,
	history.StatusFailed,
	history.StatusRejected,
}

func formatStats(stats map[history.Status]int) string {
	parts := make([]string, 0, len(statsOrder))
	for _, status := range statsOrder {
		if count := stats[status]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", status, count))
		}
	}
	if len(parts) == 0 {
		return "Totals: none"
	}
	return "Totals: " + strings.Join(parts, ", ")
}

func renderHistory(records []*history.Record) string {
	headers := []string{"ID", "Kind", "Status", "Started", "Duration", "Units", "Input", "Detail"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := string(rec.Status)
		if rec.ExitCode != nil && *rec.ExitCode != 0 {
			status = fmt.Sprintf("%s (exit %d)", status, *rec.ExitCode)
		}
		rows = append(rows, []string{
			shortID(rec.ID),
			string(rec.Kind),
			status,
			formatTimestamp(rec.StartedAt),
			formatElapsed(rec.Duration()),
			formatUnits(rec.Units, rec.FallbackUnits),
			rec.InputPath,
			rec.Detail,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight})
}
