package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"att/internal/transcript"
)

// SRT renders numbered SubRip cue blocks: cue number on its own line, a
// timecode line, the segment text trimmed of edge whitespace with internal
// newlines kept, then one blank line. Cue numbers run 1..N. Zero-duration
// cues are emitted. Negative or non-finite times fail with
// *transcript.InvalidSegmentError and are never clamped.
func SRT(t transcript.Transcript) ([]byte, error) {
	var b strings.Builder
	for i, seg := range t.Segments {
		if !transcript.ValidTime(seg.Start) || !transcript.ValidTime(seg.End) {
			return nil, &transcript.InvalidSegmentError{
				Index:  i,
				Reason: "time is negative or not a finite number",
			}
		}

		fmt.Fprintf(
			&b,
			"%d\n%s --> %s\n%s\n\n",
			seg.Index+1,
			Timecode(seg.Start),
			Timecode(seg.End),
			strings.TrimSpace(seg.Text),
		)
	}
	return []byte(b.String()), nil
}

// Timecode converts seconds to the SRT HH:MM:SS,mmm form, truncating to
// whole milliseconds, not rounding. Values must be finite and non-negative.
func Timecode(sec float64) string {
	ms := decimal.NewFromFloat(sec).Mul(decimal.NewFromInt(1000)).IntPart()
	return fmt.Sprintf(
		"%02d:%02d:%02d,%03d",
		ms/3600000,
		ms%3600000/60000,
		ms%60000/1000,
		ms%1000,
	)
}
