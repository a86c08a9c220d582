// Package response turns free-form model output into structured records.
//
// Parsing runs in two stages. Extraction finds the first brace-balanced JSON
// object carrying an expected key (code fences and surrounding prose are
// ignored). Decoding reads that object field by field with gjson so that one
// malformed entry does not discard its siblings. Sections and quotes fall back
// to a line-oriented legacy grammar when no JSON object is usable; every other
// shape degrades to an empty result. Nothing in this package returns an error:
// failures are logged and yield empty values.
package response
