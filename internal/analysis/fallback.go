package analysis

import (
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

const minimalSpeechChars = 50

// Fallback descriptions for a job that produced no sections.
const (
	FallbackNoSpeech = "No speech was detected in this video."
	FallbackMinimal  = "This video contains minimal spoken audio; there was not enough content to analyze."
	FallbackMusic    = "This video appears to be mostly music with little or no spoken content."
	FallbackGeneric  = "No notable sections were identified in this video. The content appears to be routine discussion."
)

// FallbackDescription picks the description for the single section emitted
// when analysis found nothing.
func FallbackDescription(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case trimmed == "":
		return FallbackNoSpeech
	case len([]rune(trimmed)) < minimalSpeechChars:
		return FallbackMinimal
	case strings.Contains(lower, "music"):
		return FallbackMusic
	default:
		return FallbackGeneric
	}
}

// applyEmptyFallback emits one routine section spanning the whole video.
func (j *job) applyEmptyFallback() {
	description := FallbackDescription(transcript.JoinText(j.segments))
	s := Section{
		Category:     categories.Routine,
		Description:  description,
		StartTime:    transcript.FormatDisplay(0),
		EndTime:      transcript.FormatDisplay(j.duration),
		StartSeconds: 0,
		Quotes:       []Quote{},
	}
	j.logger.Info("no sections found; emitting fallback section",
		logging.String(logging.FieldDecisionType, "empty_result_fallback"),
		logging.String("description", description),
	)
	j.sections = append(j.sections, s)
	j.writeSection(s)
}
