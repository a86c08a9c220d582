package logging

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID identifies the analysis job a line belongs to.
	FieldJobID = "job_id"
	// FieldPhase names the pipeline phase (boundaries, chapters, chunks, metadata).
	FieldPhase = "phase"
	// FieldCorrelationID is the key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags log lines that record a branch decision.
	FieldDecisionType = "decision_type"
	// FieldChunk is the 1-based chunk number.
	FieldChunk = "chunk"
	// FieldChapter is the 1-based chapter sequence.
	FieldChapter = "chapter"
	// FieldAttempt is the 1-based retry attempt.
	FieldAttempt = "attempt"
	// FieldModel is the LLM model identifier.
	FieldModel = "model"
	// FieldProvider is the LLM provider name.
	FieldProvider = "provider"
)
