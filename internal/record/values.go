package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamp is an offset in seconds. Page attributes arrive as strings, numbers,
// or not at all; anything that does not parse to a number decodes as unset and
// the caller substitutes its default.
type Timestamp struct {
	seconds float64
	valid   bool
}

// Seconds returns a set timestamp.
func Seconds(v float64) Timestamp {
	if math.IsNaN(v) {
		return Timestamp{}
	}
	return Timestamp{seconds: v, valid: true}
}

// ParseTimestamp parses a textual attribute value. Unparsable input yields an
// unset timestamp.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Timestamp{}
	}
	return Seconds(v)
}

// Valid reports whether the timestamp parsed.
func (t Timestamp) Valid() bool {
	return t.valid
}

// IsZero reports whether the timestamp is unset. It is used by omitzero.
func (t Timestamp) IsZero() bool {
	return !t.valid
}

// Or returns the parsed value or def when unset.
func (t Timestamp) Or(def float64) float64 {
	if !t.valid {
		return def
	}
	return t.seconds
}

// UnmarshalJSON never fails: unparsable values leave the timestamp unset.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = ParseTimestamp(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if v, err := strconv.ParseFloat(string(data), 64); err == nil {
			*t = Seconds(v)
		}
	}
	return nil
}

// MarshalJSON writes the value as a number, or null when unset or infinite.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.valid || math.IsInf(t.seconds, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(t.seconds, 'f', -1, 64)), nil
}

func (t Timestamp) String() string {
	if !t.valid {
		return "unset"
	}
	return strconv.FormatFloat(t.seconds, 'f', -1, 64)
}

// ChapterIndex identifies a chapter. The empty value means "no chapter": a
// matching chapter without an index never opens a new section.
type ChapterIndex string

// IsZero reports whether the index is absent.
func (i ChapterIndex) IsZero() bool {
	return i == ""
}

// UnmarshalJSON accepts strings and numbers. Zero, false and null decode as
// absent; objects and arrays are rejected.
func (i *ChapterIndex) UnmarshalJSON(data []byte) error {
	*i = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case 'n':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ChapterIndex(s)
		return nil
	case 't':
		*i = "true"
		return nil
	case 'f':
		return nil
	case '{', '[':
		return fmt.Errorf("chapter index must be a string or number, got %s", kindOf(data))
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("chapter index: %w", err)
		}
		if v != 0 {
			*i = ChapterIndex(string(data))
		}
		return nil
	}
}

func kindOf(data []byte) string {
	if len(data) > 0 && data[0] == '[' {
		return "array"
	}
	return "object"
}
