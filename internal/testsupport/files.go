package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSegments stores segments as a JSON transcript and returns the path.
func WriteSegments(t testing.TB, dir string, segments []transcript.Segment) string {
	t.Helper()

	data, err := json.Marshal(segments)
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	path := filepath.Join(dir, "transcript.json")
	WriteFile(t, path, string(data))
	return path
}

// WriteSRT stores segments as an SRT file and returns the path.
func WriteSRT(t testing.TB, dir string, segments []transcript.Segment) string {
	t.Helper()

	path := filepath.Join(dir, "transcript.srt")
	WriteFile(t, path, transcript.GenerateSRT(segments))
	return path
}

// Segments builds evenly spaced segments of the given length from texts.
func Segments(seconds float64, texts ...string) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(texts))
	for i, text := range texts {
		start := float64(i) * seconds
		out = append(out, transcript.Segment{Start: start, End: start + seconds, Text: text})
	}
	return out
}
