package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"talkpress/internal/cache"
	"talkpress/internal/history"
	"talkpress/internal/pipeline"
)

func TestRenderStatus(t *testing.T) {
	if got := renderStatus(history.StatusFailed, false); got != "failed" {
		t.Fatalf("plain = %q", got)
	}
	if got := renderStatus(history.StatusFailed, true); got != ansiRed+"failed"+ansiReset {
		t.Fatalf("colored = %q", got)
	}
	if got := renderStatus("", true); got != "-" {
		t.Fatalf("empty = %q", got)
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffer should not be colorized")
	}
}

func TestRenderHistory(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	entries := []history.Entry{{
		RunID:      "0123456789abcdef",
		Year:       2024,
		VideoID:    "10179",
		Stage:      "translate",
		Status:     history.StatusFailed,
		Error:      "llm request: http 502",
		StartedAt:  now.Add(-3 * time.Minute),
		FinishedAt: now.Add(-2 * time.Minute),
	}}
	out := renderHistory(entries, now, false)
	for _, want := range []string{"2 minutes ago", "01234567", "2024/10179", "Translate", "failed", "1m0s", "http 502"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestFormatSummary(t *testing.T) {
	summary := history.Summary{history.StatusCompleted: 3, history.StatusFailed: 1}
	if got := formatSummary(summary); got != "4 stage runs: 3 completed, 1 failed" {
		t.Fatalf("summary = %q", got)
	}
}

func TestRenderRunReportMarksBusyVideos(t *testing.T) {
	report := pipeline.BatchReport{RunID: "run-1", Videos: []pipeline.VideoReport{
		{Key: cache.Key{Year: 2024, VideoID: "10179"}, Status: history.StatusFailed, Err: fmt.Errorf("lock: %w", cache.ErrLocked)},
		{Key: cache.Key{Year: 2024, VideoID: "10500"}, Status: history.StatusFailed, Err: errors.New("http 502")},
	}}
	out := renderRunReport(report, false)
	if !strings.Contains(out, "busy: another run holds this video") {
		t.Fatalf("expected busy marker in:\n%s", out)
	}
	if !strings.Contains(out, "http 502") || strings.Count(out, "busy:") != 1 {
		t.Fatalf("unexpected report:\n%s", out)
	}
}
