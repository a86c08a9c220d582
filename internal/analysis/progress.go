package analysis

import "sync"

// ProgressFunc receives job milestones. Percentages never decrease within a
// job and reach 100 on success.
type ProgressFunc func(phase string, percent float64, message string)

// Progress phases.
const (
	PhaseAnalysis    = "analysis"
	PhaseBoundaries  = "boundaries"
	PhaseChapters    = "chapters"
	PhaseChunks      = "chunks"
	PhaseDescription = "description"
	PhaseTags        = "tags"
	PhaseTitle       = "title"
	PhaseComplete    = "complete"
	PhaseFailed      = "failed"
)

const (
	progressAnalysisStart = 5
	progressAnalysisEnd   = 90
	// progressBoundaryShare is the part of the analysis span spent on pass 1.
	progressBoundaryShare = 0.3
	progressDescription   = 92
	progressTags          = 95
	progressTitle         = 97
)

type progress struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
}

func newProgress(fn ProgressFunc) *progress {
	return &progress{fn: fn}
}

// report forwards a milestone, clamping percent so it never goes backwards.
func (p *progress) report(phase string, percent float64, message string) {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	if percent < p.last {
		percent = p.last
	}
	if percent > 100 {
		percent = 100
	}
	p.last = percent
	p.mu.Unlock()
	p.fn(phase, percent, message)
}

// fail reports the job failure at the last reached percentage.
func (p *progress) fail(message string) {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	p.fn(PhaseFailed, last, message)
}

// span maps step done of total onto [from, to].
func span(from, to float64, done, total int) float64 {
	if total <= 0 {
		return to
	}
	return from + (to-from)*float64(done)/float64(total)
}
