package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"talkpress/internal/cache"
	"talkpress/internal/record"
)

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var (
		year int
		save bool
	)

	cmd := &cobra.Command{
		Use:   "crawl [flags] ID",
		Short: "Fetch one session page and print its record JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseVideos(year, args)
			if err != nil {
				return err
			}
			key := keys[0]

			fetcher, err := ctx.fetcher()
			if err != nil {
				return err
			}
			rec, err := fetcher.Fetch(cmd.Context(), key.Year, key.VideoID)
			if err != nil {
				return err
			}
			data, err := record.Encode(rec)
			if err != nil {
				return err
			}

			if save {
				store, err := ctx.cacheStore()
				if err != nil {
					return err
				}
				if err := store.Save(key, cache.StageCrawl, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", store.Path(key, cache.StageCrawl))
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "WWDC year (e.g. 2024)")
	cmd.Flags().BoolVar(&save, "save", false, "Also write the record to the cache")
	return cmd
}
