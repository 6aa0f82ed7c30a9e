package transcript

import (
	"fmt"
	"math"
)

// WordTiming locates one recognized word inside its parent segment.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one contiguous recognized span of speech with timing in
// seconds from the start of the media.
type Segment struct {
	Index int          `json:"index"`
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []WordTiming `json:"words,omitempty"`
}

// Duration returns the segment length in seconds. Zero is legal.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the complete ordered recognition result for one media file.
// Segments may be empty when the recognizer found no speech.
type Transcript struct {
	Language string
	Segments []Segment
}

// InvalidSegmentError reports a segment that violates the transcript
// contract. Index is the position in the segment slice.
type InvalidSegmentError struct {
	Index  int
	Reason string
}

// Error formats the violation for logs and UI.
func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("invalid segment %d: %s", e.Index, e.Reason)
}

// ValidTime reports whether a timestamp in seconds is finite and
// non-negative.
func ValidTime(sec float64) bool {
	return !math.IsNaN(sec) && !math.IsInf(sec, 0) && sec >= 0
}

// Validate checks every segment against the transcript contract: finite
// non-negative times, end not before start, indices consecutive from zero,
// start times non-decreasing, word spans inside their segment. An empty
// transcript is valid.
func (t Transcript) Validate() error {
	for i, seg := range t.Segments {
		if seg.Index != i {
			return &InvalidSegmentError{
				Index:  i,
				Reason: fmt.Sprintf("index is %d, want %d", seg.Index, i),
			}
		}
		if !ValidTime(seg.Start) || !ValidTime(seg.End) {
			return &InvalidSegmentError{
				Index:  i,
				Reason: "time is negative or not a finite number",
			}
		}
		if seg.End < seg.Start {
			return &InvalidSegmentError{
				Index:  i,
				Reason: "ends before it starts",
			}
		}
		if i > 0 && seg.Start < t.Segments[i-1].Start {
			return &InvalidSegmentError{
				Index:  i,
				Reason: "starts before the previous segment",
			}
		}
		for _, w := range seg.Words {
			if !ValidTime(w.Start) || !ValidTime(w.End) {
				return &InvalidSegmentError{
					Index:  i,
					Reason: fmt.Sprintf("word %q time is negative or not a finite number", w.Word),
				}
			}
			if w.End < w.Start {
				return &InvalidSegmentError{
					Index:  i,
					Reason: fmt.Sprintf("word %q ends before it starts", w.Word),
				}
			}
			if w.Start < seg.Start || w.End > seg.End {
				return &InvalidSegmentError{
					Index:  i,
					Reason: fmt.Sprintf("word %q timing falls outside the segment", w.Word),
				}
			}
		}
	}
	return nil
}
