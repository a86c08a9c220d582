package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/prompts"
	"github.com/telltaleatheist/clippy-sub006/internal/response"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

// Span is a chapter's time range before it is analyzed.
type Span struct {
	Start float64
	End   float64
}

// ChapterSpans turns boundary times into contiguous spans covering
// [0, duration]. Boundaries outside (0, duration) and repeats are ignored.
func ChapterSpans(boundaries []float64, duration float64) []Span {
	if duration <= 0 {
		return nil
	}
	points := []float64{0}
	sorted := append([]float64(nil), boundaries...)
	sort.Float64s(sorted)
	for _, b := range sorted {
		if math.IsNaN(b) || b <= 0 || b >= duration || b == points[len(points)-1] {
			continue
		}
		points = append(points, b)
	}
	spans := make([]Span, 0, len(points))
	for i, start := range points {
		end := duration
		if i+1 < len(points) {
			end = points[i+1]
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}

// runChapters is the two-pass pipeline.
func (j *job) runChapters(ctx context.Context) {
	boundaries := j.detectBoundaries(ctx)
	if j.canceled {
		return
	}
	spans := ChapterSpans(boundaries, j.duration)
	j.logger.Info("chapters planned",
		logging.Int("boundaries", len(boundaries)),
		logging.Int("chapters", len(spans)),
	)

	flags := j.analyzeChapters(ctx, spans)

	flags = categories.Filter(j.validator, flags,
		func(s Section) string { return s.Category },
		func(s *Section, name string) { s.Category = name },
	)
	flags = categories.Dedupe(flags, j.a.cfg.Analysis.DedupWindowSeconds,
		func(s Section) float64 { return s.StartSeconds }, j.logger)
	for _, s := range flags {
		j.sections = append(j.sections, s)
		j.writeSection(s)
	}
}

// detectBoundaries is pass 1: walk chunks asking where the topic changes.
// The result always starts with 0.
func (j *job) detectBoundaries(ctx context.Context) []float64 {
	chunks := transcript.Split(j.segments, j.a.capacity.ChunkMinutes)
	boundaryEnd := progressAnalysisStart + (progressAnalysisEnd-progressAnalysisStart)*progressBoundaryShare
	j.progress.report(PhaseBoundaries, progressAnalysisStart,
		fmt.Sprintf("Detecting topic changes across %d chunks...", len(chunks)))

	index := transcript.NewOffsetIndex(j.segments, j.a.locator)
	seen := map[float64]struct{}{0: {}}
	out := []float64{0}
	previousTopic := ""

	for i, chunk := range chunks {
		if j.stopped(ctx) {
			return out
		}
		prompt, err := j.a.builder.Boundaries(prompts.BoundaryRequest{
			Title:              j.opts.Title,
			CustomInstructions: j.opts.CustomInstructions,
			ChunkNumber:        chunk.Number,
			First:              i == 0,
			PreviousTopic:      previousTopic,
			Transcript:         chunk.Text,
			MaxChars:           j.a.capacity.MaxChars,
		})
		if err != nil {
			j.logger.Warn("boundary prompt failed", logging.Error(err))
			continue
		}
		reply, err := WithRetries(ctx, j.retryAttempts(), func(ctx context.Context, attempt int) (response.Boundaries, error) {
			text, err := j.generate(ctx, prompt)
			if err != nil {
				j.logRetry("boundary chunk", chunk.Number, attempt, err)
				return response.Boundaries{}, err
			}
			parsed := j.a.parser.Boundaries(text)
			if len(parsed.Phrases) == 0 && parsed.TopicSummary == "" {
				err := unusable(text)
				j.logRetry("boundary chunk", chunk.Number, attempt, err)
				return response.Boundaries{}, err
			}
			return parsed, nil
		})
		if err != nil {
			if j.stopped(ctx) {
				return out
			}
			logging.WarnWithContext(j.logger, "boundary detection failed for chunk", "boundary_chunk_failed",
				logging.Int(logging.FieldChunk, chunk.Number),
				logging.Error(err),
				logging.String(logging.FieldImpact, "topic changes in this chunk are not detected"),
			)
			continue
		}

		for _, phrase := range reply.Phrases {
			ts, ok := j.a.locator.Locate(phrase, chunk.Segments)
			if !ok {
				ts, ok = index.Locate(phrase)
			}
			if !ok {
				j.logUnresolved("boundary", phrase, chunk.Number)
				continue
			}
			if _, dup := seen[ts]; dup {
				continue
			}
			seen[ts] = struct{}{}
			out = append(out, ts)
		}
		if summary := strings.TrimSpace(reply.TopicSummary); summary != "" {
			previousTopic = summary
		}
		j.progress.report(PhaseBoundaries, span(progressAnalysisStart, boundaryEnd, i+1, len(chunks)),
			fmt.Sprintf("Scanned chunk %d/%d for topic changes", chunk.Number, len(chunks)))
	}
	sort.Float64s(out)
	return out
}

// analyzeChapters is pass 2: title, summary, and flags per chapter. Flags are
// returned unvalidated in chapter order.
func (j *job) analyzeChapters(ctx context.Context, spans []Span) []Section {
	boundaryEnd := progressAnalysisStart + (progressAnalysisEnd-progressAnalysisStart)*progressBoundaryShare
	var flags []Section
	previousSummary := ""

	for i, sp := range spans {
		if j.stopped(ctx) {
			return flags
		}
		sequence := i + 1
		j.progress.report(PhaseChapters, span(boundaryEnd, progressAnalysisEnd, i, len(spans)),
			fmt.Sprintf("Analyzing chapter %d/%d...", sequence, len(spans)))

		segs := transcript.StartingIn(j.segments, sp.Start, sp.End)
		text := transcript.JoinText(segs)
		if text == "" {
			j.logger.Debug("chapter skipped",
				logging.Int(logging.FieldChapter, sequence),
				logging.String("reason", "no speech in span"),
			)
			continue
		}
		if truncated, cut := prompts.Truncate(text, j.a.capacity.MaxChars); cut {
			j.logger.Info("chapter transcript truncated",
				logging.Int(logging.FieldChapter, sequence),
				logging.Int("original_chars", len([]rune(text))),
				logging.Int("max_chars", j.a.capacity.MaxChars),
			)
			text = truncated
		}

		prompt, err := j.a.builder.Chapter(prompts.ChapterRequest{
			Title:              j.opts.Title,
			CustomInstructions: j.opts.CustomInstructions,
			Categories:         j.enabled,
			OpenCategories:     j.validator.Open(),
			ChapterNumber:      sequence,
			Start:              transcript.FormatDisplay(sp.Start),
			End:                transcript.FormatDisplay(sp.End),
			PreviousSummary:    previousSummary,
			Transcript:         text,
		})
		if err != nil {
			j.logger.Warn("chapter prompt failed", logging.Error(err))
			continue
		}
		reply, err := WithRetries(ctx, j.retryAttempts(), func(ctx context.Context, attempt int) (response.ChapterAnalysis, error) {
			text, err := j.generate(ctx, prompt)
			if err != nil {
				j.logRetry("chapter", sequence, attempt, err)
				return response.ChapterAnalysis{}, err
			}
			parsed, ok := j.a.parser.ChapterAnalysis(text)
			if !ok {
				err := unusable(text)
				j.logRetry("chapter", sequence, attempt, err)
				return response.ChapterAnalysis{}, err
			}
			return parsed, nil
		})
		if err != nil {
			if j.stopped(ctx) {
				return flags
			}
			j.failed = append(j.failed, sequence)
			logging.WarnWithContext(j.logger, "chapter abandoned", "chapter_failed",
				logging.Int(logging.FieldChapter, sequence),
				logging.Error(err),
				logging.String(logging.FieldImpact, "chapter omitted from results"),
			)
			continue
		}

		title := strings.TrimSpace(reply.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", sequence)
		}
		j.chapters = append(j.chapters, Chapter{
			Sequence:  sequence,
			StartTime: sp.Start,
			EndTime:   sp.End,
			Title:     title,
			Summary:   strings.TrimSpace(reply.Summary),
		})
		if reply.Summary != "" {
			previousSummary = reply.Summary
		}
		for _, f := range reply.Flags {
			flags = append(flags, j.flagSection(f, sp, segs))
		}
		j.progress.report(PhaseChapters, span(boundaryEnd, progressAnalysisEnd, i+1, len(spans)),
			fmt.Sprintf("Chapter %d: %s", sequence, title))
	}
	return flags
}

// quoted wraps s in plain double quotes without escaping its contents.
func quoted(s string) string {
	return "\"" + s + "\""
}

// flagSection converts a chapter flag into a section anchored at its quote,
// or at the chapter start when the quote cannot be found.
func (j *job) flagSection(f response.Flag, sp Span, segs []transcript.Segment) Section {
	quote := strings.TrimSpace(f.Quote)
	description := strings.TrimSpace(f.Description)
	switch {
	case quote != "" && description != "":
		description = quoted(quote) + " — " + description
	case quote != "":
		description = quoted(quote)
	}

	start := sp.Start
	if quote != "" {
		start = j.a.locator.LocateIn(quote, segs, sp.Start)
	}
	end := math.Min(start+j.flagWindow(), sp.End)

	out := Section{
		Category:     f.Category,
		Description:  description,
		StartTime:    transcript.FormatDisplay(start),
		EndTime:      transcript.FormatDisplay(end),
		StartSeconds: start,
		Quotes:       []Quote{},
	}
	if quote != "" {
		out.Quotes = append(out.Quotes, Quote{Timestamp: out.StartTime, Text: quote})
	}
	return out
}

func (j *job) flagWindow() float64 {
	if w := j.a.cfg.Analysis.FlagWindowSeconds; w > 0 {
		return w
	}
	return detailMinimumSeconds
}
