package record

import (
	"math"
)

// Record is the structured content extracted from one session page. Every
// top-level field is optional.
type Record struct {
	Detail        *Detail      `json:"detail,omitempty"`
	Transcript    []Sentence   `json:"transcript,omitempty"`
	SampleCodes   []CodeSample `json:"sample_codes,omitempty"`
	RelatedVideos []Link       `json:"related_videos,omitempty"`
	Documents     []Link       `json:"documents,omitempty"`
}

// Detail holds the page header: title, description and chapter list.
type Detail struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Chapters    []Chapter `json:"chapters,omitempty"`
}

// IsZero reports whether the detail carries no content at all.
func (d *Detail) IsZero() bool {
	return d == nil || (d.Title == "" && d.Description == "" && len(d.Chapters) == 0)
}

// Chapter is a named, time-bounded section of the talk.
type Chapter struct {
	Index     ChapterIndex `json:"index,omitzero"`
	Title     string       `json:"title"`
	StartTime Timestamp    `json:"start_time,omitzero"`
	EndTime   Timestamp    `json:"end_time,omitzero"`
}

// Start returns the chapter start in seconds, 0 when unknown.
func (c Chapter) Start() float64 {
	return c.StartTime.Or(0)
}

// End returns the chapter end in seconds. An unknown end leaves the chapter
// open so trailing sentences still fall inside it.
func (c Chapter) End() float64 {
	return c.EndTime.Or(math.Inf(1))
}

// Contains reports whether t falls inside [Start, End], both ends inclusive.
func (c Chapter) Contains(t float64) bool {
	return t >= c.Start() && t <= c.End()
}

// Opens reports whether t falls inside [Start, End).
func (c Chapter) Opens(t float64) bool {
	return t >= c.Start() && t < c.End()
}

// Sentence is one transcript line.
type Sentence struct {
	StartTime Timestamp `json:"start_time,omitzero"`
	EndTime   Timestamp `json:"end_time,omitzero"`
	Text      string    `json:"text"`
}

// Start returns the sentence start in seconds, 0 when unknown.
func (s Sentence) Start() float64 {
	return s.StartTime.Or(0)
}

// CodeSample is a code snippet shown at a point in the talk.
type CodeSample struct {
	StartTime   Timestamp `json:"start_time,omitzero"`
	Description string    `json:"description,omitempty"`
	Code        string    `json:"code"`
	Language    string    `json:"language,omitempty"`
}

// Start returns the sample timestamp in seconds, 0 when unknown.
func (c CodeSample) Start() float64 {
	return c.StartTime.Or(0)
}

// Link is a titled URL (related session or document).
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Chapters returns the chapter list, or nil when the record has no detail.
func (r *Record) Chapters() []Chapter {
	if r == nil || r.Detail == nil {
		return nil
	}
	return r.Detail.Chapters
}

// IsEmpty reports whether the record has nothing to render.
func (r *Record) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Detail.IsZero() &&
		len(r.Transcript) == 0 &&
		len(r.SampleCodes) == 0 &&
		len(r.RelatedVideos) == 0 &&
		len(r.Documents) == 0
}
