package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWhitespace collapses runs of whitespace (including newlines and
// non-breaking spaces) into single spaces and trims the result.
func NormalizeWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// NormalizeText applies Unicode NFC composition and whitespace collapsing.
// Page text mixes composed and decomposed forms; NFC keeps cached output stable.
func NormalizeText(value string) string {
	return NormalizeWhitespace(norm.NFC.String(value))
}

// NormalizeBlock applies NFC and trims trailing whitespace per line while
// keeping line structure and indentation. Used for code.
func NormalizeBlock(value string) string {
	value = norm.NFC.String(strings.ReplaceAll(value, "\r\n", "\n"))
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\u00a0")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// Label turns an identifier such as "zh_rewrite" or "related-videos" into a
// title-cased label ("Zh Rewrite").
func Label(value string) string {
	value = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	return cases.Title(language.English).String(NormalizeWhitespace(value))
}
