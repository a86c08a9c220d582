package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptyTranscript reports a transcript file with no usable segments.
var ErrEmptyTranscript = errors.New("transcript has no segments")

// Load reads a transcript from a .json or .srt file. JSON input may be either a
// bare segment array or an object with a "segments" array (whisper output).
// Segments are returned sorted by start time.
func Load(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var segments []Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt":
		segments = ParseSRT(data)
	case ".json":
		segments, err = ParseJSON(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported transcript format %q", filepath.Ext(path))
	}
	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}
	return segments, nil
}

// ParseJSON decodes segments from JSON.
func ParseJSON(data []byte) ([]Segment, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	var segments []Segment
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &segments); err != nil {
			return nil, fmt.Errorf("decode transcript segments: %w", err)
		}
	} else {
		var wrapper struct {
			Segments []Segment `json:"segments"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, fmt.Errorf("decode transcript object: %w", err)
		}
		segments = wrapper.Segments
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}
