package services

import (
	"errors"
	"fmt"
	"strings"

	"talkpress/internal/history"
	"talkpress/internal/record"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the history status recorded for it.
// Input that can never succeed (malformed records, invalid model output, pages
// that do not exist) is skipped; everything else is a retryable failure.
func FailureStatus(err error) history.Status {
	switch {
	case errors.Is(err, record.ErrMalformedRecord),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound):
		return history.StatusSkipped
	default:
		return history.StatusFailed
	}
}

// Hint returns a short operator-facing suggestion for an error class.
func Hint(err error) string {
	switch {
	case errors.Is(err, record.ErrMalformedRecord):
		return "re-crawl the session with --refresh"
	case errors.Is(err, ErrConfiguration):
		return "check the config file with 'talkpress config validate'"
	case errors.Is(err, ErrNotFound):
		return "verify the year and video id"
	case errors.Is(err, ErrTimeout):
		return "raise timeout_seconds or retry later"
	case errors.Is(err, ErrExternalTool):
		return "check network access and the crawler command"
	case errors.Is(err, ErrValidation):
		return "retry the stage; the model returned unusable output"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
