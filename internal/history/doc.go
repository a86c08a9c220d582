// Package history persists analysis jobs in SQLite so past results can be
// listed and reloaded without rerunning the model.
//
// A job row is created when analysis starts and finished with its status,
// token usage, and the serialized result. Rows are keyed by the analysis
// job id.
package history
