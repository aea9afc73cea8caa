package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"talkpress/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear cached stage outputs",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached stage outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			entries, err := store.List(year)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Cache is empty (%s)\n", store.Root())
				return nil
			}
			fmt.Fprintln(out, renderCacheEntries(entries, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Only this WWDC year")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "clear --year Y [ID...]",
		Short: "Delete cached outputs for a year or for specific videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			removed := 0
			var clearErr error
			if len(args) == 0 {
				if year <= 0 {
					return fmt.Errorf("--year is required when no video ids are given")
				}
				removed, clearErr = store.ClearYear(year)
			} else {
				keys, err := parseVideos(year, args)
				if err != nil {
					return err
				}
				var busy []error
				for _, key := range keys {
					n, err := store.Remove(key)
					removed += n
					if errors.Is(err, cache.ErrLocked) {
						busy = append(busy, err)
					} else if err != nil {
						return err
					}
				}
				clearErr = errors.Join(busy...)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached %s\n", removed, pluralFiles(removed))
			return clearErr
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "WWDC year")
	return cmd
}

func renderCacheEntries(entries []cache.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	var total int64
	for _, entry := range entries {
		total += entry.Size
		rows = append(rows, []string{
			entry.Key.String(),
			string(entry.Stage),
			humanize.Bytes(uint64(entry.Size)),
			humanize.RelTime(entry.ModTime, now, "ago", "from now"),
			entry.Path,
		})
	}
	return renderTable(tableSpec{
		headers: []string{"Video", "Stage", "Size", "Modified", "Path"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		footer:  []string{fmt.Sprintf("%d files", len(entries)), "", humanize.Bytes(uint64(total)), "", ""},
	})
}

func pluralFiles(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
