package markdown

import (
	"strings"
)

const (
	// BlockSeparator separates regular blocks with one blank line.
	BlockSeparator = "\n\n"
	// LineSeparator joins blocks on consecutive lines (list items, link lines).
	LineSeparator = "\n"
)

// Builder accumulates Markdown blocks. The zero value is ready to use.
//
// Block helpers never leave more than one blank line between blocks, and the
// rendered document never starts or ends with blank lines.
type Builder struct {
	buf strings.Builder
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddHeading appends an ATX heading. Levels below 1 are treated as 1.
func (b *Builder) AddHeading(text string, level int) {
	if level < 1 {
		level = 1
	}
	b.AddBlock(strings.Repeat("#", level)+" "+text, BlockSeparator)
}

// AddParagraph appends text as its own block.
func (b *Builder) AddParagraph(text string) {
	b.AddBlock(text, BlockSeparator)
}

// AddList appends one bulleted line per item without blank lines between them.
func (b *Builder) AddList(items []string) {
	for _, item := range items {
		b.AddBlock("- "+item, LineSeparator)
	}
}

// AddQuote appends text as a block quote, prefixing every line with "> ".
func (b *Builder) AddQuote(text string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+strings.TrimSpace(line), " ")
	}
	b.AddBlock(strings.Join(lines, "\n"), BlockSeparator)
}

// AddCodeBlock appends a fenced code block. An empty language produces a bare fence.
func (b *Builder) AddCodeBlock(code, language string) {
	language = strings.TrimSpace(language)
	b.AddBlock("```"+language+"\n"+code+"\n```", BlockSeparator)
}

// BuildLink returns an inline link fragment without appending it.
func (b *Builder) BuildLink(text, url string) string {
	return "[" + text + "](" + url + ")"
}

// AddBlock trims text and appends it as a block. The separator is added after
// the block, and before it when the accumulated content does not already end
// in a newline. A blank-line block that follows a run of tight lines (a list)
// is still preceded by one blank line. Blocks that are empty after trimming
// are ignored.
func (b *Builder) AddBlock(text, separator string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if separator == "" {
		separator = BlockSeparator
	}
	if !strings.HasSuffix(text, "\n") {
		text += separator
	}
	switch {
	case b.buf.Len() == 0:
	case !b.endsWith("\n"):
		b.buf.WriteString(separator)
	case separator == BlockSeparator && !b.endsWith(BlockSeparator):
		b.buf.WriteString(LineSeparator)
	}
	b.buf.WriteString(text)
}

// AddText appends text verbatim.
func (b *Builder) AddText(text string) {
	b.buf.WriteString(text)
}

// Markdown returns the accumulated document trimmed of surrounding whitespace.
func (b *Builder) Markdown() string {
	return strings.TrimSpace(b.buf.String())
}

func (b *Builder) endsWith(suffix string) bool {
	return strings.HasSuffix(b.buf.String(), suffix)
}
