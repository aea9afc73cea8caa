package pipeline

import (
	"context"
	"time"

	"talkpress/internal/cache"
	"talkpress/internal/history"
	"talkpress/internal/prompts"
	"talkpress/internal/record"
)

// Fetcher produces the crawled record for a video.
type Fetcher interface {
	Fetch(ctx context.Context, year int, videoID string) (*record.Record, error)
}

// Transformer turns one stage's text into the next stage's text.
type Transformer interface {
	Transform(ctx context.Context, kind prompts.Kind, input string) (string, error)
}

// Recorder persists stage outcomes.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Options controls one run.
type Options struct {
	// UseCache reuses existing stage outputs.
	UseCache bool
	// Refresh recomputes every planned stage even when cached.
	Refresh bool
	// Podcast adds the podcast stage after rewrite.
	Podcast bool
	// Until stops after the named stage. Empty runs every planned stage.
	Until cache.Stage
	// AttachAllSamples is passed to the Markdown assembler.
	AttachAllSamples bool
}

// Plan returns the stages a run executes, in order.
func (o Options) Plan() []cache.Stage {
	var plan []cache.Stage
	for _, stage := range cache.Stages() {
		if stage == cache.StagePodcast && !o.Podcast && o.Until != cache.StagePodcast {
			break
		}
		plan = append(plan, stage)
		if stage == o.Until {
			break
		}
	}
	return plan
}

// NeedsLLM reports whether the plan reaches an LLM stage.
func (o Options) NeedsLLM() bool {
	for _, stage := range o.Plan() {
		if stage.Index() >= cache.StageTranslate.Index() {
			return true
		}
	}
	return false
}

// StageResult is the outcome of one stage.
type StageResult struct {
	Stage    cache.Stage
	Status   history.Status
	Path     string
	Duration time.Duration
	Err      error
}

// VideoReport collects the stage outcomes for one video.
type VideoReport struct {
	Key    cache.Key
	Stages []StageResult
	Status history.Status
	Err    error
}

// Output returns the path of the last stage that produced output.
func (r VideoReport) Output() string {
	for i := len(r.Stages) - 1; i >= 0; i-- {
		if r.Stages[i].Status.Succeeded() {
			return r.Stages[i].Path
		}
	}
	return ""
}

// BatchReport is the result of RunBatch. Videos keep the input order.
type BatchReport struct {
	RunID    string
	Videos   []VideoReport
	Duration time.Duration
}

// Summary counts videos per overall status.
func (b BatchReport) Summary() history.Summary {
	summary := history.Summary{}
	for _, video := range b.Videos {
		summary[video.Status]++
	}
	return summary
}

// Failed reports whether any video failed. Skipped videos do not count.
func (b BatchReport) Failed() bool {
	for _, video := range b.Videos {
		if video.Status == history.StatusFailed {
			return true
		}
	}
	return false
}
