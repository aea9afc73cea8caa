package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord marks input whose structure is wrong: the top level is not
// an object, or a list field holds something other than a list of objects.
// Callers must not salvage partial output from such input.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedError describes which part of the input was malformed.
type MalformedError struct {
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrMalformedRecord, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedRecord, e.Field, e.Err)
}

// Unwrap exposes both the marker and the underlying cause.
func (e *MalformedError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

var fieldOrder = []string{"detail", "transcript", "sample_codes", "related_videos", "documents"}

// Decode parses one record JSON object. Missing keys and unparsable timestamps
// are tolerated; structural problems return a *MalformedError.
func Decode(data []byte) (*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedError{Err: errors.New("empty input")}
	}
	if trimmed[0] != '{' {
		return nil, &MalformedError{Err: errors.New("top level is not an object")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &MalformedError{Err: err}
	}

	rec := &Record{}
	targets := map[string]any{
		"detail":         &rec.Detail,
		"transcript":     &rec.Transcript,
		"sample_codes":   &rec.SampleCodes,
		"related_videos": &rec.RelatedVideos,
		"documents":      &rec.Documents,
	}
	for _, key := range fieldOrder {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := checkEntries(key, raw); err != nil {
			return nil, &MalformedError{Field: key, Err: err}
		}
		if err := json.Unmarshal(raw, targets[key]); err != nil {
			return nil, &MalformedError{Field: key, Err: describe(err)}
		}
	}
	return rec, nil
}

// Encode renders the record as indented JSON.
func Encode(rec *Record) ([]byte, error) {
	if rec == nil {
		rec = &Record{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return append(data, '\n'), nil
}

// checkEntries rejects list elements that are not objects. A null element
// would otherwise decode into a zero-value entry.
func checkEntries(key string, raw json.RawMessage) error {
	if key != "detail" {
		return requireObjects(key, raw)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var detail map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &detail); err != nil {
		return err
	}
	if chapters, ok := detail["chapters"]; ok {
		return requireObjects("chapters", chapters)
	}
	return nil
}

// requireObjects checks every element of a JSON array. Values that are not
// arrays are left for the typed decode to report.
func requireObjects(name string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return fmt.Errorf("%s[%d]: entry is not an object", name, i)
		}
	}
	return nil
}

func describe(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return fmt.Errorf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value)
	}
	return err
}
