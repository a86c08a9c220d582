package transcript

import (
	"sort"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/textutil"
)

// OffsetIndex flattens a transcript into one normalized string and remembers
// where each segment begins, so a phrase that straddles any number of
// segments can still be resolved.
type OffsetIndex struct {
	text    string
	offsets []int
	starts  []float64
	words   []indexedWord
	locator Locator
}

type indexedWord struct {
	word string
	pos  int
}

// NewOffsetIndex builds an index over segments using the thresholds of l.
func NewOffsetIndex(segments []Segment, l Locator) *OffsetIndex {
	idx := &OffsetIndex{locator: l}
	var b strings.Builder
	for _, seg := range segments {
		fields := strings.Fields(textutil.Normalize(seg.Text))
		if len(fields) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		idx.offsets = append(idx.offsets, b.Len())
		idx.starts = append(idx.starts, seg.Start)
		for j, field := range fields {
			if j > 0 {
				b.WriteByte(' ')
			}
			if w := textutil.Words(field); len(w) > 0 {
				idx.words = append(idx.words, indexedWord{word: w[0], pos: b.Len()})
			}
			b.WriteString(field)
		}
	}
	idx.text = b.String()
	return idx
}

// Locate finds phrase in the flattened transcript and returns the start of the
// segment in which the match begins. Exact, then short-prefix, then a sliding
// word window scored by overlap.
func (x *OffsetIndex) Locate(phrase string) (float64, bool) {
	if x == nil || len(x.offsets) == 0 {
		return 0, false
	}
	needle := textutil.CollapseSpace(textutil.Normalize(phrase))
	if textutil.RuneLen(needle) < x.locator.minLength() {
		return 0, false
	}
	if pos := strings.Index(x.text, needle); pos >= 0 {
		return x.startAt(pos), true
	}
	if short := textutil.Prefix(needle, x.locator.PrefixShort); textutil.RuneLen(short) >= x.locator.minLength() {
		if pos := strings.Index(x.text, short); pos >= 0 {
			return x.startAt(pos), true
		}
	}
	if pos, ok := x.fuzzyWindow(needle); ok {
		return x.startAt(pos), true
	}
	return 0, false
}

func (x *OffsetIndex) fuzzyWindow(needle string) (int, bool) {
	phraseWords := textutil.Tokenize(needle, 2)
	size := len(textutil.Words(needle))
	if len(phraseWords) == 0 || size == 0 || len(x.words) == 0 {
		return 0, false
	}
	if size > len(x.words) {
		size = len(x.words)
	}
	bestPos, bestScore := -1, 0.0
	window := make([]string, 0, size)
	for i := 0; i+size <= len(x.words); i++ {
		window = window[:0]
		for _, w := range x.words[i : i+size] {
			if textutil.RuneLen(w.word) > 2 {
				window = append(window, w.word)
			}
		}
		if score := overlapScore(phraseWords, window); score > bestScore {
			bestPos, bestScore = x.words[i].pos, score
		}
	}
	if bestPos < 0 || bestScore <= x.locator.OverlapThreshold {
		return 0, false
	}
	return bestPos, true
}

// startAt maps a byte position in the flattened text to the start time of the
// nearest preceding segment.
func (x *OffsetIndex) startAt(pos int) float64 {
	i := sort.Search(len(x.offsets), func(i int) bool { return x.offsets[i] > pos }) - 1
	if i < 0 {
		i = 0
	}
	return x.starts[i]
}
