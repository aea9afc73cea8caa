package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"talkpress/internal/cache"
	"talkpress/internal/history"
	"talkpress/internal/logging"
	"talkpress/internal/services"
)

// RunBatch processes distinct videos over at most concurrency workers. A
// failing video never stops the batch; cancelling ctx stops dispatch and the
// undispatched videos are reported as failed with the context error.
func (r *Runner) RunBatch(ctx context.Context, keys []cache.Key, opts Options, concurrency int) BatchReport {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	keys = dedupe(keys)
	started := r.now()
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started", logging.Args(logging.BatchStart(len(keys), concurrency, opts.Plan())...)...)

	report := BatchReport{RunID: runID, Videos: make([]VideoReport, len(keys))}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			report.Videos[i] = VideoReport{Key: key, Status: history.StatusFailed, Err: err}
			continue
		}
		// Go blocks while the pool is full, so ctx may end before this runs.
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Videos[i] = VideoReport{Key: key, Status: history.StatusFailed, Err: err}
				return nil
			}
			report.Videos[i] = r.RunVideo(ctx, key, opts)
			return nil
		})
	}
	_ = g.Wait()
	report.Duration = r.now().Sub(started)

	logger.Info("batch finished", logging.Args(logging.BatchComplete(report.Summary(), report.Duration)...)...)
	return report
}

func dedupe(keys []cache.Key) []cache.Key {
	seen := make(map[cache.Key]struct{}, len(keys))
	out := make([]cache.Key, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
