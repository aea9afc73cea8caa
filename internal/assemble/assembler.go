package assemble

import (
	"math"

	"talkpress/internal/markdown"
	"talkpress/internal/record"
)

const (
	transcriptHeading    = "Transcript"
	relatedVideosHeading = "Related Videos"
	documentsHeading     = "Documents"
)

// Options tunes rendering.
type Options struct {
	// AttachAllSamples emits every code sample that falls in a sentence gap.
	// When false only the first sample per gap is kept, which matches
	// previously cached output byte for byte.
	AttachAllSamples bool
}

// Build renders a record as Markdown. Sections appear in a fixed order: title
// and description, transcript, related videos, documents. Absent sections are
// omitted; an empty record renders as "".
func Build(rec *record.Record, opts Options) string {
	if rec == nil {
		return ""
	}
	b := markdown.NewBuilder()
	writeDetail(b, rec.Detail)
	writeTranscript(b, rec, opts)
	writeLinks(b, relatedVideosHeading, rec.RelatedVideos)
	writeLinks(b, documentsHeading, rec.Documents)
	return b.Markdown()
}

// FromJSON decodes a record and renders it. Structural problems surface as
// record.ErrMalformedRecord and no Markdown is returned.
func FromJSON(data []byte, opts Options) (string, error) {
	rec, err := record.Decode(data)
	if err != nil {
		return "", err
	}
	return Build(rec, opts), nil
}

func writeDetail(b *markdown.Builder, detail *record.Detail) {
	if detail == nil {
		return
	}
	if detail.Title != "" {
		b.AddHeading(detail.Title, 1)
	}
	if detail.Description != "" {
		b.AddParagraph(detail.Description)
	}
}

func writeTranscript(b *markdown.Builder, rec *record.Record, opts Options) {
	if len(rec.Transcript) == 0 {
		return
	}
	b.AddHeading(transcriptHeading, 1)

	scan := chapterScan{chapters: rec.Chapters()}
	prev := 0.0
	for _, sentence := range rec.Transcript {
		t := sentence.Start()
		if title, ok := scan.enter(t); ok && title != "" {
			b.AddHeading(title, 2)
		}
		writeSamples(b, samplesInGap(rec.SampleCodes, prev, t, opts.AttachAllSamples))
		b.AddText(sentence.Text)
		prev = t
	}
	writeSamples(b, samplesInGap(rec.SampleCodes, prev, math.Inf(1), opts.AttachAllSamples))
}

// chapterScan tracks the chapter the transcript is currently in. Once a chapter
// has been entered the scan never returns to "no chapter": gaps between
// chapters keep the last heading, and revisiting the same chapter emits nothing.
type chapterScan struct {
	chapters []record.Chapter
	current  record.ChapterIndex
}

// enter reports the title to emit when t moves the scan into a new chapter.
func (s *chapterScan) enter(t float64) (string, bool) {
	chapter, ok := matchChapter(s.chapters, t)
	if !ok || chapter.Index.IsZero() || chapter.Index == s.current {
		return "", false
	}
	s.current = chapter.Index
	return chapter.Title, true
}

// matchChapter returns the first chapter in declared order containing t. A
// boundary shared by two chapters belongs to the one that starts there; a
// chapter's end only matches inclusively when no chapter opens at t.
func matchChapter(chapters []record.Chapter, t float64) (record.Chapter, bool) {
	for _, chapter := range chapters {
		if chapter.Opens(t) {
			return chapter, true
		}
	}
	for _, chapter := range chapters {
		if chapter.Contains(t) {
			return chapter, true
		}
	}
	return record.Chapter{}, false
}

// samplesInGap returns samples whose timestamp falls in [from, to), in list
// order. Without all, at most the first match is returned.
func samplesInGap(samples []record.CodeSample, from, to float64, all bool) []record.CodeSample {
	var matched []record.CodeSample
	for _, sample := range samples {
		ts := sample.Start()
		if ts < from || ts >= to {
			continue
		}
		matched = append(matched, sample)
		if !all {
			break
		}
	}
	return matched
}

func writeSamples(b *markdown.Builder, samples []record.CodeSample) {
	for _, sample := range samples {
		if sample.Description != "" {
			b.AddQuote(sample.Description)
		}
		if sample.Code != "" {
			b.AddCodeBlock(sample.Code, sample.Language)
		}
	}
}

func writeLinks(b *markdown.Builder, heading string, links []record.Link) {
	if len(links) == 0 {
		return
	}
	b.AddHeading(heading, 1)
	items := make([]string, 0, len(links))
	for _, link := range links {
		items = append(items, b.BuildLink(link.Title, link.URL))
	}
	b.AddList(items)
}
