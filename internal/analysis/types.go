package analysis

import (
	"github.com/telltaleatheist/clippy-sub006/internal/response"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
)

// Quote is a resolved quotation attached to a section.
type Quote struct {
	Timestamp    string `json:"timestamp"`
	Text         string `json:"text"`
	Significance string `json:"significance,omitempty"`
}

// Section is an accepted, timestamped unit of the analysis.
type Section struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time,omitempty"`
	Quotes      []Quote `json:"quotes"`

	StartSeconds float64 `json:"start_seconds"`
}

// Chapter is one contiguous topic span of the video.
type Chapter struct {
	Sequence  int     `json:"sequence"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
	Summary   string  `json:"summary,omitempty"`
}

// TokenStats accumulates model usage across a job.
type TokenStats struct {
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	TotalTokens   int     `json:"total_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
	APICalls      int     `json:"api_calls"`
}

// Add records one completed call.
func (s *TokenStats) Add(c llm.Completion) {
	s.InputTokens += c.InputTokens
	s.OutputTokens += c.OutputTokens
	s.TotalTokens += c.InputTokens + c.OutputTokens
	s.EstimatedCost += c.EstimatedCost
	s.APICalls++
}

// Result is the final artifact of a job.
type Result struct {
	JobID          string         `json:"job_id"`
	Pipeline       string         `json:"pipeline"`
	SectionsCount  int            `json:"sections_count"`
	Sections       []Section      `json:"sections"`
	Chapters       []Chapter      `json:"chapters"`
	Tags           *response.Tags `json:"tags,omitempty"`
	Description    string         `json:"description,omitempty"`
	SuggestedTitle string         `json:"suggested_title,omitempty"`
	TokenStats     *TokenStats    `json:"token_stats,omitempty"`
	// FailedUnits lists chunk or chapter numbers abandoned after retries.
	FailedUnits []int `json:"failed_units,omitempty"`
	// Canceled is set when the job stopped early on request.
	Canceled bool `json:"canceled,omitempty"`
}
