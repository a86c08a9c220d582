package transcript

import "strings"

// Timestamped renders up to maxSegments segments as "[M:SS] text" lines and
// caps the result at maxChars runes. Non-positive limits disable that cap.
func Timestamped(segments []Segment, maxSegments, maxChars int) string {
	if maxSegments > 0 && len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}
	var b strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(FormatDisplay(seg.Start))
		b.WriteString("] ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	out := b.String()
	if maxChars > 0 {
		runes := []rune(out)
		if len(runes) > maxChars {
			out = string(runes[:maxChars])
		}
	}
	return out
}
