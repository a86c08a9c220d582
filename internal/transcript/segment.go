package transcript

import "strings"

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the end time of the last segment, or zero when empty.
func Duration(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	last := segments[len(segments)-1]
	if last.End < last.Start {
		return last.Start
	}
	return last.End
}

// JoinText concatenates segment texts separated by single spaces.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Within returns the segments whose start and end both fall in [start, end].
func Within(segments []Segment, start, end float64) []Segment {
	var out []Segment
	for _, seg := range segments {
		if seg.Start >= start && seg.End <= end {
			out = append(out, seg)
		}
	}
	return out
}

// StartingIn returns the segments whose start falls in [start, end).
func StartingIn(segments []Segment, start, end float64) []Segment {
	var out []Segment
	for _, seg := range segments {
		if seg.Start >= start && seg.Start < end {
			out = append(out, seg)
		}
	}
	return out
}
