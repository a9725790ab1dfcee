package emotion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoFaces is returned when a backend answers with an empty collection.
var ErrNoFaces = errors.New("classifier returned no results")

// Record is one per-face classification.
type Record struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion,omitempty"`
	// FaceConfidence is 0 when the backend analysed the whole frame because
	// it found no face.
	FaceConfidence float64 `json:"face_confidence,omitempty"`
}

// Result holds either a single record or a per-face collection, depending on
// what the backend returned.
type Result struct {
	single *Record
	many   []Record
}

// SingleResult wraps one record.
func SingleResult(r Record) Result {
	return Result{single: &r}
}

// MultiResult wraps a per-face collection.
func MultiResult(records []Record) Result {
	return Result{many: append([]Record(nil), records...)}
}

// IsCollection reports whether the backend returned a collection.
func (r Result) IsCollection() bool {
	return r.single == nil
}

// First normalises the result to one record. Collections yield their first
// entry only.
func (r Result) First() (Record, error) {
	if r.single != nil {
		return *r.single, nil
	}
	if len(r.many) == 0 {
		return Record{}, ErrNoFaces
	}
	return r.many[0], nil
}

// Dominant returns the record's dominant emotion, neutral when the backend
// left it out.
func (r Record) Dominant() Label {
	return ParseLabel(r.DominantEmotion)
}

// DecodeResult parses a classifier response. Accepted shapes are a bare
// record, a bare array of records, or an object wrapping the array under
// "results".
func DecodeResult(data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, fmt.Errorf("empty classifier payload")
	}

	switch trimmed[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Result{}, fmt.Errorf("decode result list: %w", err)
		}
		return MultiResult(records), nil
	case '{':
		var wrapped struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return Result{}, fmt.Errorf("decode result: %w", err)
		}
		if len(wrapped.Results) > 0 && !bytes.Equal(wrapped.Results, []byte("null")) {
			return DecodeResult(wrapped.Results)
		}

		var record Record
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return Result{}, fmt.Errorf("decode result: %w", err)
		}
		return SingleResult(record), nil
	default:
		return Result{}, fmt.Errorf("unexpected classifier payload %q", truncate(string(trimmed), 32))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
