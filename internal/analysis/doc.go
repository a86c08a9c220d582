// Package analysis runs an analysis job over a transcript.
//
// A job walks the transcript strictly in order, one model call at a time,
// and turns model replies into flagged sections, chapters, and metadata.
// Two pipelines exist:
//
//   - chapters (default): pass 1 walks time chunks asking only where the
//     topic changes, carrying a rolling topic summary forward. Pass 2
//     analyzes each resulting chapter for a title, a summary, and category
//     flags, carrying the previous chapter's summary forward.
//   - chunks: each time chunk is asked for sections directly. In thorough
//     mode every non-routine section gets a second call for verbatim quotes.
//
// Per-chunk and per-chapter failures are logged and skipped. Only a
// configuration error before the first call, or a failure escaping every
// guard, fails the job. Cancellation is honored between calls and returns
// what was accumulated so far.
//
// Description, tags, and suggested title are derived from the produced
// sections and chapters, never from the raw transcript, and each has a
// deterministic fallback.
package analysis
