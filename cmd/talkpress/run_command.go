package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"talkpress/internal/cache"
	"talkpress/internal/history"
	"talkpress/internal/logging"
	"talkpress/internal/pipeline"
	"talkpress/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		year        int
		podcast     bool
		refresh     bool
		noCache     bool
		until       string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run [flags] ID...",
		Short: "Run the stage pipeline for one or more sessions",
		Long: "Crawl each session, assemble Markdown, translate and rewrite it, and optionally\n" +
			"produce a podcast script. Stage outputs are cached under paths.output_dir.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keys, err := parseVideos(year, args)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				UseCache:         cfg.Pipeline.Cache && !noCache,
				Refresh:          refresh,
				Podcast:          cfg.Pipeline.Podcast || podcast,
				AttachAllSamples: cfg.Pipeline.AttachAllSamples,
			}
			if until != "" {
				stage, err := cache.ParseStage(until)
				if err != nil {
					return err
				}
				opts.Until = stage
			}
			if concurrency <= 0 {
				concurrency = cfg.Pipeline.Concurrency
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			fetcher, err := ctx.fetcher()
			if err != nil {
				return err
			}
			var transformer pipeline.Transformer
			if opts.NeedsLLM() {
				t, err := ctx.transformer()
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "", "run", "", err)
				}
				transformer = t
			}

			var recorder pipeline.Recorder
			if hist, err := ctx.openHistory(); err != nil {
				logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
					logging.String(logging.FieldImpact, "stage outcomes will not appear in 'talkpress status'"),
					logging.Error(err))
			} else {
				defer hist.Close()
				recorder = hist
			}

			runner := pipeline.NewRunner(store, fetcher, transformer, recorder, logger)
			report := runner.RunBatch(cmd.Context(), keys, opts, concurrency)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRunReport(report, shouldColorize(out)))
			fmt.Fprintln(out, summarizeRun(report))

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if report.Failed() {
				summary := report.Summary()
				return fmt.Errorf("%d of %d videos failed (run %s)", summary[history.StatusFailed], len(report.Videos), report.RunID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "WWDC year (e.g. 2024)")
	cmd.Flags().BoolVar(&podcast, "podcast", false, "Also produce a podcast script")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Recompute every stage even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore existing stage outputs for this run")
	cmd.Flags().StringVar(&until, "until", "", "Stop after this stage (crawl, markdown, translate, rewrite, podcast)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Videos processed in parallel (default from config)")
	return cmd
}

func renderRunReport(report pipeline.BatchReport, colorize bool) string {
	rows := make([][]string, 0, len(report.Videos))
	for _, video := range report.Videos {
		stages := make([]string, 0, len(video.Stages))
		for _, stage := range video.Stages {
			stages = append(stages, string(stage.Stage)+":"+string(stage.Status))
		}
		detail := video.Output()
		switch {
		case pipeline.IsLocked(video.Err):
			detail = "busy: another run holds this video"
		case video.Err != nil:
			detail = truncate(video.Err.Error(), 72)
		}
		rows = append(rows, []string{
			video.Key.String(),
			renderStatus(video.Status, colorize),
			strings.Join(stages, " "),
			detail,
		})
	}
	return renderTable(tableSpec{
		headers: []string{"Video", "Status", "Stages", "Output / Error"},
		rows:    rows,
	})
}

func summarizeRun(report pipeline.BatchReport) string {
	summary := report.Summary()
	parts := make([]string, 0, 4)
	for _, status := range []history.Status{history.StatusCompleted, history.StatusCached, history.StatusSkipped, history.StatusFailed} {
		if n := summary[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	noun := "videos"
	if len(report.Videos) == 1 {
		noun = "video"
	}
	return fmt.Sprintf("%d %s: %s in %s (run %s)",
		len(report.Videos), noun, strings.Join(parts, ", "),
		report.Duration.Round(10*time.Millisecond), shortRunID(report.RunID))
}
