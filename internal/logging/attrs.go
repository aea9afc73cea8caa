package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

// Attribute constructors, re-exported so callers only import this package.
var (
	Any      = slog.Any
	Duration = slog.Duration
	Int      = slog.Int
	String   = slog.String
)

// Error wraps err under the "error" key. A nil error still produces the key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attributes into the variadic form slog.Logger methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// CacheHit describes a stage answered from its cached output.
func CacheHit(path string) []Attr {
	return []Attr{
		String(FieldEventType, "cache_hit"),
		String(FieldDecisionType, "cache"),
		String("decision_result", "hit"),
		String("decision_reason", "stage output exists"),
		String("path", path),
	}
}

// StageComplete describes a stage that produced and saved new output.
func StageComplete(path string, size int, elapsed time.Duration) []Attr {
	return []Attr{
		String(FieldEventType, "stage_complete"),
		String("path", path),
		Int("bytes", size),
		Duration("elapsed", elapsed),
	}
}

// StageOutcome describes a failed or skipped stage. hint may be empty.
func StageOutcome(status string, elapsed time.Duration, err error, hint string) []Attr {
	attrs := []Attr{
		String("resolved_status", status),
		Duration("elapsed", elapsed),
		Error(err),
	}
	if hint != "" {
		attrs = append(attrs, String(FieldErrorHint, hint))
	}
	return attrs
}

// BatchStart describes a batch before its videos are dispatched.
func BatchStart(videos, concurrency int, stages any) []Attr {
	return []Attr{
		String(FieldEventType, "batch_start"),
		Int("videos", videos),
		Int("concurrency", concurrency),
		Any("stages", stages),
	}
}

// BatchComplete describes a finished batch with per-status video counts.
func BatchComplete[S ~string](counts map[S]int, elapsed time.Duration) []Attr {
	attrs := []Attr{String(FieldEventType, "batch_complete")}
	for _, status := range []S{"completed", "cached", "skipped", "failed"} {
		attrs = append(attrs, Int(string(status), counts[status]))
	}
	return append(attrs, Duration("elapsed", elapsed))
}

// WarnWithContext logs a warning that always states its event type, impact and
// a next step. Caller-supplied values win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emit(logger, slog.LevelWarn, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
		String(FieldImpact, "operation completed with warnings"))
}

// ErrorWithContext logs an error that always states its event type and a next step.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emit(logger, slog.LevelError, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"))
}

func emit(logger *slog.Logger, level slog.Level, msg string, attrs []Attr, defaults ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		present[attr.Key] = true
	}
	for _, def := range defaults {
		if !present[def.Key] {
			attrs = append(attrs, def)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a no-op one.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
