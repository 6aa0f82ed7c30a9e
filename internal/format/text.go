package format

import (
	"strings"

	"att/internal/transcript"
)

// Text renders one trimmed line per segment, each newline-terminated.
// Segment order is preserved and no segment is dropped, so an empty-text
// segment still contributes a line. An empty transcript produces no bytes.
func Text(t transcript.Transcript) []byte {
	var b strings.Builder
	for _, seg := range t.Segments {
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
