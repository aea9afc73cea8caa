package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.md
var embedded embed.FS

// Kind names one LLM stage prompt.
type Kind string

const (
	KindTranslate Kind = "translate"
	KindRewrite   Kind = "rewrite"
	KindPodcast   Kind = "podcast"
)

// Kinds returns every known prompt.
func Kinds() []Kind {
	return []Kind{KindTranslate, KindRewrite, KindPodcast}
}

// FileName returns the file a prompt is loaded from.
func (k Kind) FileName() string {
	return string(k) + ".md"
}

// LanguagePlaceholder is replaced with the configured target language.
const LanguagePlaceholder = "{{language}}"

// Library resolves prompts, preferring <dir>/<kind>.md over the embedded copy.
type Library struct {
	dir      string
	language string
}

// NewLibrary returns a library. An empty dir uses only the embedded prompts.
func NewLibrary(dir, language string) *Library {
	return &Library{dir: strings.TrimSpace(dir), language: strings.TrimSpace(language)}
}

// Prompt returns the rendered prompt for kind.
func (l *Library) Prompt(kind Kind) (string, error) {
	raw, _, err := l.load(kind)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(raw, LanguagePlaceholder, l.language)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("prompt %s is empty", kind)
	}
	return text, nil
}

// Source reports where the prompt for kind comes from: a file path or "embedded".
func (l *Library) Source(kind Kind) (string, error) {
	_, source, err := l.load(kind)
	return source, err
}

func (l *Library) load(kind Kind) (string, string, error) {
	if !known(kind) {
		return "", "", fmt.Errorf("unknown prompt %q", kind)
	}
	if l.dir != "" {
		path := filepath.Join(l.dir, kind.FileName())
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return string(data), path, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", "", fmt.Errorf("read prompt override: %w", err)
		}
	}
	data, err := embedded.ReadFile("templates/" + kind.FileName())
	if err != nil {
		return "", "", fmt.Errorf("read embedded prompt %s: %w", kind, err)
	}
	return string(data), "embedded", nil
}

func known(kind Kind) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
