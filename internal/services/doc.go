// Package services defines shared utilities consumed by the analysis pipelines
// and the LLM provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, pipeline phases, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the job boundary
//     tell fatal configuration problems apart from transient model failures.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across a job.
package services
