package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"talkpress/internal/history"
	"talkpress/internal/textutil"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		year   int
		video  string
		runID  string
		status string
		limit  int
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded stage outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := history.Filter{
				Year:    year,
				VideoID: strings.TrimSpace(video),
				RunID:   strings.TrimSpace(runID),
				Limit:   limit,
			}
			if status != "" {
				parsed, ok := history.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q (use completed, cached, failed or skipped)", status)
				}
				filter.Status = parsed
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if prune > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %s history %s older than %s\n",
					humanize.Comma(removed), pluralRows(removed), prune)
			}

			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded runs match")
				return nil
			}

			summaryFilter := filter
			summaryFilter.Limit = 0
			summary, err := store.Summarize(cmd.Context(), summaryFilter)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, renderHistory(entries, time.Now(), shouldColorize(out)))
			fmt.Fprintln(out, formatSummary(summary))
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Only this WWDC year")
	cmd.Flags().StringVar(&video, "video", "", "Only this video id")
	cmd.Flags().StringVar(&runID, "run", "", "Only this run id")
	cmd.Flags().StringVar(&status, "status", "", "Only this status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows (0 for all)")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete history older than this age first (e.g. 720h)")
	return cmd
}

func renderHistory(entries []history.Entry, now time.Time, colorize bool) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			humanize.RelTime(entry.FinishedAt, now, "ago", "from now"),
			shortRunID(entry.RunID),
			entry.Video(),
			textutil.Label(entry.Stage),
			renderStatus(entry.Status, colorize),
			entry.Duration().Round(time.Millisecond).String(),
			truncate(entry.Error, 60),
		})
	}
	return renderTable(tableSpec{
		headers: []string{"When", "Run", "Video", "Stage", "Status", "Took", "Error"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	})
}

func formatSummary(summary history.Summary) string {
	parts := []string{}
	for _, status := range []history.Status{history.StatusCompleted, history.StatusCached, history.StatusSkipped, history.StatusFailed} {
		if n := summary[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(int64(n)), status))
		}
	}
	return fmt.Sprintf("%s stage runs: %s", humanize.Comma(int64(summary.Total())), strings.Join(parts, ", "))
}

func pluralRows(n int64) string {
	if n == 1 {
		return "row"
	}
	return "rows"
}
