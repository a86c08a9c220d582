package history

import "time"

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// Usage is the model usage recorded for a job.
type Usage struct {
	InputTokens   int
	OutputTokens  int
	EstimatedCost float64
	APICalls      int
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int { return u.InputTokens + u.OutputTokens }

// Job is one recorded analysis run.
type Job struct {
	ID       string
	Source   string
	Title    string
	Provider string
	Model    string
	Pipeline string
	Status   Status
	Sections int
	Error    string
	// ResultJSON is the serialized analysis result; empty until the job
	// finishes successfully or is canceled.
	ResultJSON string
	Usage      Usage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status != StatusRunning
}

// Outcome is what Finish records for a job.
type Outcome struct {
	Status     Status
	Sections   int
	Error      string
	ResultJSON string
	Usage      Usage
}
