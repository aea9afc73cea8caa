package cache

import (
	"fmt"
	"strconv"
	"strings"

	"talkpress/internal/textutil"
)

// Stage names one pipeline step and the file suffix its output is cached under.
type Stage string

const (
	StageCrawl     Stage = "crawl"
	StageMarkdown  Stage = "markdown"
	StageTranslate Stage = "translate"
	StageRewrite   Stage = "rewrite"
	StagePodcast   Stage = "podcast"
)

var stageSuffixes = map[Stage]string{
	StageCrawl:     ".json",
	StageMarkdown:  ".md",
	StageTranslate: "_zh.md",
	StageRewrite:   "_zh_rewrite.md",
	StagePodcast:   "_podcast.json",
}

// suffixMatchOrder lists stages so that longer suffixes are tried first when
// mapping a file name back to its stage.
var suffixMatchOrder = []Stage{StageRewrite, StageTranslate, StagePodcast, StageMarkdown, StageCrawl}

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{StageCrawl, StageMarkdown, StageTranslate, StageRewrite, StagePodcast}
}

// ParseStage converts a stage name, ignoring case.
func ParseStage(value string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stageSuffixes[stage]; !ok {
		return "", fmt.Errorf("unknown stage %q", value)
	}
	return stage, nil
}

// Suffix returns the cache file suffix for the stage.
func (s Stage) Suffix() string {
	return stageSuffixes[s]
}

// Index returns the stage position in execution order, or -1.
func (s Stage) Index() int {
	for i, stage := range Stages() {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) String() string {
	return string(s)
}

// Key identifies one video.
type Key struct {
	Year    int
	VideoID string
}

// Validate rejects keys that cannot be used as path segments.
func (k Key) Validate() error {
	if k.Year < 2000 || k.Year > 2999 {
		return fmt.Errorf("invalid year %d", k.Year)
	}
	if !textutil.IsSafeToken(k.VideoID) {
		return fmt.Errorf("invalid video id %q", k.VideoID)
	}
	return nil
}

// String returns "<year>/<id>".
func (k Key) String() string {
	return strconv.Itoa(k.Year) + "/" + k.VideoID
}

// ParseKey parses "<year>/<id>".
func ParseKey(value string) (Key, error) {
	yearPart, id, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return Key{}, fmt.Errorf("video %q must look like <year>/<id>", value)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return Key{}, fmt.Errorf("video %q: year: %w", value, err)
	}
	key := Key{Year: year, VideoID: id}
	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}

func stageForFile(name string) (string, Stage, bool) {
	for _, stage := range suffixMatchOrder {
		suffix := stage.Suffix()
		if id, ok := strings.CutSuffix(name, suffix); ok && id != "" {
			return id, stage, true
		}
	}
	return "", "", false
}
