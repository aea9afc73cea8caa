package history

import (
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of one stage for one video.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCached    Status = "cached"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

var allStatuses = []Status{StatusCompleted, StatusCached, StatusFailed, StatusSkipped}

// ParseStatus converts a string into a Status, ignoring case.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Succeeded reports whether the stage produced (or reused) its output.
func (s Status) Succeeded() bool {
	return s == StatusCompleted || s == StatusCached
}

// Entry is one recorded stage outcome.
type Entry struct {
	ID         int64
	RunID      string
	Year       int
	VideoID    string
	Stage      string
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the stage ran.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Video returns the "<year>/<id>" label.
func (e Entry) Video() string {
	return fmt.Sprintf("%d/%s", e.Year, e.VideoID)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Year    int
	VideoID string
	RunID   string
	Status  Status
	Limit   int
}

// Summary counts outcomes per status.
type Summary map[Status]int

// Total returns the number of counted entries.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}
