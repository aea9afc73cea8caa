package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"talkpress/internal/cache"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		year       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list --year Y",
		Short: "List the sessions published for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year <= 0 {
				return fmt.Errorf("--year is required")
			}
			fetcher, err := ctx.httpFetcher()
			if err != nil {
				return err
			}
			sessions, err := fetcher.ListSessions(cmd.Context(), year)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, sessions)
			}

			progress := map[string]cache.Stage{}
			if store, err := ctx.cacheStore(); err == nil {
				if entries, err := store.List(year); err == nil {
					for _, entry := range entries {
						progress[entry.Key.VideoID] = entry.Stage
					}
				}
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				done := "-"
				if stage, ok := progress[s.VideoID]; ok {
					done = string(stage)
				}
				rows = append(rows, []string{s.VideoID, truncate(s.Title, 60), s.Category, s.Duration, done})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"ID", "Title", "Category", "Duration", "Cached Through"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			}))
			fmt.Fprintf(out, "%d sessions in WWDC%d\n", len(sessions), year)
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "WWDC year (e.g. 2024)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sessions as JSON")
	return cmd
}
