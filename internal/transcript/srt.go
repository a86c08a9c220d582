package transcript

import (
	"fmt"
	"io"
	"strings"
)

// ParseSRT converts SRT cue blocks into segments. Blocks without a valid timing
// line are skipped; multi-line cue text is joined with spaces.
func ParseSRT(data []byte) []Segment {
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil
	}

	var segments []Segment
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}
		parts := strings.Split(lines[timing], "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			continue
		}
		// Cue settings may trail the end timestamp.
		endField := strings.Fields(parts[1])
		if len(endField) == 0 {
			continue
		}
		end, err := parseSRTTimestamp(endField[0])
		if err != nil {
			continue
		}
		var text []string
		for _, line := range lines[timing+1:] {
			if line = strings.TrimSpace(line); line != "" {
				text = append(text, line)
			}
		}
		segments = append(segments, Segment{Start: start, End: end, Text: strings.Join(text, " ")})
	}
	return segments
}

// WriteSRT renders segments as a numbered SRT document.
func WriteSRT(w io.Writer, segments []Segment) error {
	for i, seg := range segments {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", i+1, FormatSRT(seg.Start), FormatSRT(seg.End), strings.TrimSpace(seg.Text)); err != nil {
			return fmt.Errorf("write srt cue %d: %w", i+1, err)
		}
	}
	return nil
}

// GenerateSRT renders segments as an SRT string.
func GenerateSRT(segments []Segment) string {
	var b strings.Builder
	_ = WriteSRT(&b, segments)
	return b.String()
}
