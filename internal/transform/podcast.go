package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"talkpress/internal/llm"
	"talkpress/internal/services"
	"talkpress/internal/textutil"
)

// PodcastScript is the podcast stage output.
type PodcastScript struct {
	Title    string           `json:"title"`
	Segments []PodcastSegment `json:"segments"`
}

// PodcastSegment is one speaker turn.
type PodcastSegment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ParsePodcastScript decodes model output into a script, dropping blank turns.
// A script with no usable segment fails with services.ErrValidation.
func ParsePodcastScript(content string) (*PodcastScript, error) {
	var script PodcastScript
	if err := llm.DecodeJSON(content, &script); err != nil {
		return nil, services.Wrap(services.ErrValidation, "podcast", "decode script", "model output is not a podcast script", err)
	}
	script.normalize()
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Validate requires at least one segment with both speaker and text.
func (s *PodcastScript) Validate() error {
	if s == nil || len(s.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "podcast", "validate script", "no segments", nil)
	}
	for i, segment := range s.Segments {
		if segment.Speaker == "" || segment.Text == "" {
			return services.Wrap(services.ErrValidation, "podcast", "validate script", fmt.Sprintf("segment %d is incomplete", i), nil)
		}
	}
	return nil
}

// Encode renders the script as indented JSON.
func (s *PodcastScript) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode podcast script: %w", err)
	}
	return append(data, '\n'), nil
}

func (s *PodcastScript) normalize() {
	s.Title = textutil.NormalizeText(s.Title)
	kept := s.Segments[:0]
	for _, segment := range s.Segments {
		segment.Speaker = textutil.NormalizeText(segment.Speaker)
		segment.Text = strings.TrimSpace(segment.Text)
		if segment.Speaker == "" && segment.Text == "" {
			continue
		}
		kept = append(kept, segment)
	}
	s.Segments = kept
}
