// Package transcript models timestamped speech segments and the operations the
// analysis pipelines run over them: loading JSON and SRT transcripts, splitting
// segments into time-bounded chunks, resolving model-quoted phrases back to a
// segment start time, and rendering display and SRT timestamps.
//
// Segments are treated as immutable input ordered by start time. Every
// function in this package is total: malformed or empty input yields an empty
// result rather than an error wherever the caller can continue.
package transcript
