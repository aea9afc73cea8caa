package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"talkpress/internal/assemble"
	"talkpress/internal/cache"
	"talkpress/internal/history"
	"talkpress/internal/logging"
	"talkpress/internal/prompts"
	"talkpress/internal/record"
	"talkpress/internal/services"
)

// Runner executes the stage chain for videos.
type Runner struct {
	store       *cache.Store
	fetcher     Fetcher
	transformer Transformer
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner wires the runner. transformer and recorder may be nil: LLM stages
// then fail with services.ErrConfiguration and outcomes are only logged.
func NewRunner(store *cache.Store, fetcher Fetcher, transformer Transformer, recorder Recorder, logger *slog.Logger) *Runner {
	return &Runner{
		store:       store,
		fetcher:     fetcher,
		transformer: transformer,
		recorder:    recorder,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		now:         time.Now,
	}
}

// RunVideo runs the planned stages for one video while holding its lock.
// The first failing stage ends the video; later stages are not attempted.
func (r *Runner) RunVideo(ctx context.Context, key cache.Key, opts Options) VideoReport {
	report := VideoReport{Key: key}
	ctx = services.WithVideo(ctx, key.String())
	logger := logging.WithContext(ctx, r.logger)

	if err := key.Validate(); err != nil {
		report.Status = history.StatusSkipped
		report.Err = services.Wrap(services.ErrValidation, "", "validate video", key.String(), err)
		return report
	}

	lock, err := r.store.Lock(key)
	if err != nil {
		report.Status = history.StatusFailed
		report.Err = err
		logging.WarnWithContext(logger, "video is busy", "video_locked",
			logging.String(logging.FieldImpact, "video not processed in this run"),
			logging.Error(err))
		return report
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release video lock failed", logging.Error(err))
		}
	}()

	var input []byte
	for _, stage := range opts.Plan() {
		result, output := r.runStage(ctx, key, stage, input, opts)
		report.Stages = append(report.Stages, result)
		if result.Err != nil {
			report.Status = result.Status
			report.Err = result.Err
			return report
		}
		input = output
	}

	report.Status = history.StatusCached
	for _, result := range report.Stages {
		if result.Status == history.StatusCompleted {
			report.Status = history.StatusCompleted
			break
		}
	}
	return report
}

func (r *Runner) runStage(ctx context.Context, key cache.Key, stage cache.Stage, input []byte, opts Options) (StageResult, []byte) {
	ctx = services.WithStage(ctx, string(stage))
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	result := StageResult{Stage: stage, Path: r.store.Path(key, stage)}

	if opts.UseCache && !opts.Refresh {
		data, ok, err := r.store.Load(key, stage)
		if err != nil {
			logger.Warn("cache read failed; recomputing", logging.Error(err))
		} else if ok {
			result.Status = history.StatusCached
			logger.Info("stage cached", logging.Args(logging.CacheHit(result.Path)...)...)
			r.record(ctx, key, stage, result, started)
			return result, data
		}
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	output, err := r.execute(ctx, key, stage, input, opts)
	if err == nil {
		err = r.store.Save(key, stage, output)
	}
	result.Duration = r.now().Sub(started)

	if err != nil {
		result.Err = err
		result.Status = services.FailureStatus(err)
		attrs := logging.StageOutcome(string(result.Status), result.Duration, err, services.Hint(err))
		if result.Status == history.StatusSkipped {
			logging.WarnWithContext(logger, "stage skipped", "stage_skipped", attrs...)
		} else {
			logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
		}
		r.record(ctx, key, stage, result, started)
		return result, nil
	}

	result.Status = history.StatusCompleted
	logger.Info("stage completed", logging.Args(logging.StageComplete(result.Path, len(output), result.Duration)...)...)
	r.record(ctx, key, stage, result, started)
	return result, output
}

func (r *Runner) execute(ctx context.Context, key cache.Key, stage cache.Stage, input []byte, opts Options) ([]byte, error) {
	switch stage {
	case cache.StageCrawl:
		if r.fetcher == nil {
			return nil, services.Wrap(services.ErrConfiguration, string(stage), "fetch", "no fetcher configured", nil)
		}
		rec, err := r.fetcher.Fetch(ctx, key.Year, key.VideoID)
		if err != nil {
			return nil, err
		}
		return record.Encode(rec)

	case cache.StageMarkdown:
		markdown, err := assemble.FromJSON(input, assemble.Options{AttachAllSamples: opts.AttachAllSamples})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) == "" {
			return nil, services.Wrap(services.ErrValidation, string(stage), "assemble", "record has no content", nil)
		}
		return []byte(markdown + "\n"), nil

	case cache.StageTranslate, cache.StageRewrite, cache.StagePodcast:
		if r.transformer == nil {
			return nil, services.Wrap(services.ErrConfiguration, string(stage), "transform", "no llm configured", nil)
		}
		out, err := r.transformer.Transform(ctx, prompts.Kind(stage), string(input))
		if err != nil {
			return nil, err
		}
		return []byte(out), nil

	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

func (r *Runner) record(ctx context.Context, key cache.Key, stage cache.Stage, result StageResult, started time.Time) {
	if r.recorder == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	entry := history.Entry{
		RunID:      runID,
		Year:       key.Year,
		VideoID:    key.VideoID,
		Stage:      string(stage),
		Status:     result.Status,
		StartedAt:  started,
		FinishedAt: started.Add(result.Duration),
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	// A cancelled run still records what happened.
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WithContext(ctx, r.logger).Warn("record history failed",
			logging.String(logging.FieldImpact, "status command will not show this stage"),
			logging.Error(err))
	}
}

// IsLocked reports whether err came from another process holding a video.
func IsLocked(err error) bool {
	return errors.Is(err, cache.ErrLocked)
}
