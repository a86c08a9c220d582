package transcript

import (
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/textutil"
)

// Locator resolves a phrase quoted by the model back to the start time of the
// segment that contains it.
type Locator struct {
	// MinPhraseLength is the shortest normalized phrase worth matching.
	MinPhraseLength int
	// PrefixLong caps the phrase for the exact and whitespace-normalized passes.
	PrefixLong int
	// PrefixShort is the shorter prefix tried when the long one misses.
	PrefixShort int
	// OverlapThreshold is the word-overlap score a segment must exceed.
	OverlapThreshold float64
}

// DefaultLocator returns a Locator with the stock thresholds.
func DefaultLocator() Locator {
	return Locator{
		MinPhraseLength:  3,
		PrefixLong:       40,
		PrefixShort:      20,
		OverlapThreshold: 0.5,
	}
}

// Locate returns the start of the best-matching segment. Strategies run in
// order and the first hit wins: exact substring of the long prefix,
// whitespace-normalized substring, short prefix, word overlap, and finally a
// match spanning two adjacent segments.
func (l Locator) Locate(phrase string, segments []Segment) (float64, bool) {
	needle := textutil.Normalize(phrase)
	if textutil.RuneLen(needle) < l.minLength() || len(segments) == 0 {
		return 0, false
	}

	normalized := make([]string, len(segments))
	collapsed := make([]string, len(segments))
	for i, seg := range segments {
		normalized[i] = textutil.Normalize(seg.Text)
		collapsed[i] = textutil.CollapseSpace(normalized[i])
	}

	long := textutil.Prefix(needle, l.PrefixLong)
	if i := indexContaining(normalized, long); i >= 0 {
		return segments[i].Start, true
	}

	needleCollapsed := textutil.CollapseSpace(needle)
	longCollapsed := textutil.Prefix(needleCollapsed, l.PrefixLong)
	if i := indexContaining(collapsed, longCollapsed); i >= 0 {
		return segments[i].Start, true
	}

	if short := textutil.Prefix(needleCollapsed, l.PrefixShort); textutil.RuneLen(short) >= l.minLength() {
		if i := indexContaining(collapsed, short); i >= 0 {
			return segments[i].Start, true
		}
	}

	if i := l.bestOverlap(needle, normalized); i >= 0 {
		return segments[i].Start, true
	}

	for i := 0; i+1 < len(collapsed); i++ {
		joined := strings.TrimSpace(collapsed[i] + " " + collapsed[i+1])
		if strings.Contains(joined, needleCollapsed) {
			return segments[i].Start, true
		}
	}
	return 0, false
}

// LocateIn resolves phrase within segments and falls back to def when the
// phrase cannot be found.
func (l Locator) LocateIn(phrase string, segments []Segment, def float64) float64 {
	if ts, ok := l.Locate(phrase, segments); ok {
		return ts
	}
	return def
}

func (l Locator) minLength() int {
	if l.MinPhraseLength <= 0 {
		return 1
	}
	return l.MinPhraseLength
}

func (l Locator) bestOverlap(needle string, texts []string) int {
	words := textutil.Tokenize(needle, 2)
	if len(words) == 0 {
		return -1
	}
	best, bestScore := -1, 0.0
	for i, text := range texts {
		score := overlapScore(words, textutil.Tokenize(text, 2))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore <= l.OverlapThreshold {
		return -1
	}
	return best
}

// overlapScore is the fraction of phrase words that contain, or are contained
// in, some word of the candidate.
func overlapScore(phraseWords, candidate []string) float64 {
	if len(phraseWords) == 0 || len(candidate) == 0 {
		return 0
	}
	matched := 0
	for _, pw := range phraseWords {
		for _, cw := range candidate {
			if strings.Contains(cw, pw) || strings.Contains(pw, cw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(phraseWords))
}

func indexContaining(texts []string, needle string) int {
	if needle == "" {
		return -1
	}
	for i, text := range texts {
		if strings.Contains(text, needle) {
			return i
		}
	}
	return -1
}
