package format

import (
	"encoding/json"
	"strings"
	"testing"

	"att/internal/transcript"
)

// TestJSONRoundTrip verifies record order and fields survive a decode.
func TestJSONRoundTrip(t *testing.T) {
	tr := transcript.Transcript{
		Segments: []transcript.Segment{
			{Index: 0, Start: 0, End: 1.25, Text: "one"},
			{
				Index: 1,
				Start: 1.25,
				End:   2.5,
				Text:  "two words",
				Words: []transcript.WordTiming{
					{Word: "two", Start: 1.25, End: 1.8},
					{Word: "words", Start: 1.8, End: 2.5},
				},
			},
			{Index: 2, Start: 2.5, End: 2.5, Text: "three"},
		},
	}

	raw, err := JSON(tr)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded []transcript.Segment
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != len(tr.Segments) {
		t.Fatalf("decoded records = %d, want %d", len(decoded), len(tr.Segments))
	}
	for i, seg := range decoded {
		if seg.Index != tr.Segments[i].Index {
			t.Fatalf("record %d index = %d, want %d", i, seg.Index, tr.Segments[i].Index)
		}
		if seg.Text != tr.Segments[i].Text {
			t.Fatalf("record %d text = %q, want %q", i, seg.Text, tr.Segments[i].Text)
		}
		if seg.Start != tr.Segments[i].Start || seg.End != tr.Segments[i].End {
			t.Fatalf("record %d times = (%v, %v), want (%v, %v)",
				i, seg.Start, seg.End, tr.Segments[i].Start, tr.Segments[i].End)
		}
		if len(seg.Words) != len(tr.Segments[i].Words) {
			t.Fatalf("record %d words = %d, want %d", i, len(seg.Words), len(tr.Segments[i].Words))
		}
	}
}

// TestJSONOmitsWordsWhenAbsent verifies the optional words field stays out
// of records that carry no word timings.
func TestJSONOmitsWordsWhenAbsent(t *testing.T) {
	tr := transcript.Transcript{
		Segments: []transcript.Segment{
			{Index: 0, Start: 0, End: 1, Text: "plain"},
		},
	}

	raw, err := JSON(tr)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if strings.Contains(string(raw), "\"words\"") {
		t.Fatalf("output should not mention words: %s", raw)
	}
}

// TestJSONEmptyTranscript verifies an empty array, not null.
func TestJSONEmptyTranscript(t *testing.T) {
	raw, err := JSON(transcript.Transcript{})
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("JSON() = %q, want []", raw)
	}
}

// TestJSONIndentation verifies the two-space indented layout.
func TestJSONIndentation(t *testing.T) {
	tr := transcript.Transcript{
		Segments: []transcript.Segment{
			{Index: 0, Start: 0, End: 1, Text: "x"},
		},
	}

	raw, err := JSON(tr)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Fatalf("expected two-space indent, got: %s", raw)
	}
	if !strings.Contains(string(raw), "\"index\": 0") {
		t.Fatalf("expected index field, got: %s", raw)
	}
}
