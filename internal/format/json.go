package format

import (
	"encoding/json"

	"att/internal/transcript"
)

// JSON renders the segment records as a top-level array with two-space
// indentation. Field names and nesting follow the stable record schema;
// words appear only on segments that carry word timings. An empty
// transcript produces an empty array, never null.
func JSON(t transcript.Transcript) ([]byte, error) {
	records := t.Segments
	if records == nil {
		records = []transcript.Segment{}
	}
	return json.MarshalIndent(records, "", "  ")
}
