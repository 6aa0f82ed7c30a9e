package transcript

import (
	"errors"
	"math"
	"testing"
)

// TestValidateAcceptsWellFormedTranscript verifies the happy path including
// zero-duration segments and boundary-touching word timings.
func TestValidateAcceptsWellFormedTranscript(t *testing.T) {
	tr := Transcript{
		Language: "en",
		Segments: []Segment{
			{Index: 0, Start: 0, End: 1.5, Text: "hello there"},
			{Index: 1, Start: 1.5, End: 1.5, Text: "beat"},
			{
				Index: 2,
				Start: 2.0,
				End:   4.0,
				Text:  "word timed",
				Words: []WordTiming{
					{Word: "word", Start: 2.0, End: 3.0},
					{Word: "timed", Start: 3.0, End: 4.0},
				},
			},
		},
	}

	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// TestValidateAcceptsEmptyTranscript verifies that no segments is legal.
func TestValidateAcceptsEmptyTranscript(t *testing.T) {
	if err := (Transcript{}).Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// TestValidateRejectsMalformedSegments checks each contract violation and
// that the reported index matches the offending slice position.
func TestValidateRejectsMalformedSegments(t *testing.T) {
	cases := []struct {
		name      string
		segments  []Segment
		wantIndex int
	}{
		{
			name: "index gap",
			segments: []Segment{
				{Index: 0, Start: 0, End: 1, Text: "a"},
				{Index: 2, Start: 1, End: 2, Text: "b"},
			},
			wantIndex: 1,
		},
		{
			name: "index not starting at zero",
			segments: []Segment{
				{Index: 1, Start: 0, End: 1, Text: "a"},
			},
			wantIndex: 0,
		},
		{
			name: "negative start",
			segments: []Segment{
				{Index: 0, Start: -0.5, End: 1, Text: "a"},
			},
			wantIndex: 0,
		},
		{
			name: "nan end",
			segments: []Segment{
				{Index: 0, Start: 0, End: math.NaN(), Text: "a"},
			},
			wantIndex: 0,
		},
		{
			name: "infinite end",
			segments: []Segment{
				{Index: 0, Start: 0, End: math.Inf(1), Text: "a"},
			},
			wantIndex: 0,
		},
		{
			name: "end before start",
			segments: []Segment{
				{Index: 0, Start: 2, End: 1, Text: "a"},
			},
			wantIndex: 0,
		},
		{
			name: "start times decreasing",
			segments: []Segment{
				{Index: 0, Start: 5, End: 6, Text: "a"},
				{Index: 1, Start: 4, End: 7, Text: "b"},
			},
			wantIndex: 1,
		},
		{
			name: "word before segment start",
			segments: []Segment{
				{
					Index: 0, Start: 1, End: 2, Text: "a",
					Words: []WordTiming{{Word: "a", Start: 0.5, End: 1.5}},
				},
			},
			wantIndex: 0,
		},
		{
			name: "word past segment end",
			segments: []Segment{
				{
					Index: 0, Start: 1, End: 2, Text: "a",
					Words: []WordTiming{{Word: "a", Start: 1.5, End: 2.5}},
				},
			},
			wantIndex: 0,
		},
		{
			name: "word nan time",
			segments: []Segment{
				{
					Index: 0, Start: 1, End: 2, Text: "a",
					Words: []WordTiming{{Word: "a", Start: math.NaN(), End: 1.5}},
				},
			},
			wantIndex: 0,
		},
		{
			name: "word ends before it starts",
			segments: []Segment{
				{
					Index: 0, Start: 1, End: 2, Text: "a",
					Words: []WordTiming{{Word: "a", Start: 1.8, End: 1.2}},
				},
			},
			wantIndex: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Transcript{Segments: tc.segments}.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}

			var segErr *InvalidSegmentError
			if !errors.As(err, &segErr) {
				t.Fatalf("error type = %T, want *InvalidSegmentError", err)
			}
			if segErr.Index != tc.wantIndex {
				t.Fatalf("error index = %d, want %d", segErr.Index, tc.wantIndex)
			}
		})
	}
}

// TestValidTime checks the timestamp guard used across formatters.
func TestValidTime(t *testing.T) {
	for _, tc := range []struct {
		sec  float64
		want bool
	}{
		{0, true},
		{3725.4005, true},
		{-0.001, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	} {
		if got := ValidTime(tc.sec); got != tc.want {
			t.Fatalf("ValidTime(%v) = %v, want %v", tc.sec, got, tc.want)
		}
	}
}
