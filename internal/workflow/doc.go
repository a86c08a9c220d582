// Package workflow runs one analysis job end to end: it loads the
// transcript, checks the model, opens the report, records the job in
// history, and runs the analyzer.
//
// Both the CLI and the MCP server go through Runner so a job behaves the
// same regardless of how it was started.
package workflow
