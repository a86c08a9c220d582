package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/prompts"
	"github.com/telltaleatheist/clippy-sub006/internal/response"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

const (
	detailWidenSeconds   = 5
	detailMinimumSeconds = 30
	quoteMaxSegments     = 200
	quoteMaxChars        = 6000
)

func (j *job) chunkMinutes() float64 {
	if j.quality == config.QualityFast {
		return float64(j.a.cfg.Analysis.FastChunkMinutes)
	}
	return float64(j.a.cfg.Analysis.ThoroughChunkMinutes)
}

// runChunks is the single-pass pipeline: identify sections per chunk, then
// accept them inline or analyze each in detail.
func (j *job) runChunks(ctx context.Context) {
	chunks := transcript.Split(j.segments, j.chunkMinutes())
	j.logger.Info("chunk pipeline planned",
		logging.Int("chunks", len(chunks)),
		logging.Float64("chunk_minutes", j.chunkMinutes()),
		logging.String("quality", j.quality),
	)
	j.progress.report(PhaseChunks, progressAnalysisStart, fmt.Sprintf("Analyzing %d chunks...", len(chunks)))

	for i, chunk := range chunks {
		if j.stopped(ctx) {
			return
		}
		j.progress.report(PhaseChunks, span(progressAnalysisStart, progressAnalysisEnd, i, len(chunks)),
			fmt.Sprintf("Analyzing chunk %d/%d...", chunk.Number, len(chunks)))

		found, err := j.identify(ctx, chunk)
		if err != nil {
			if j.stopped(ctx) {
				return
			}
			j.failed = append(j.failed, chunk.Number)
			logging.WarnWithContext(j.logger, "chunk abandoned", "chunk_failed",
				logging.Int(logging.FieldChunk, chunk.Number),
				logging.Error(err),
				logging.String(logging.FieldImpact, "sections from this chunk are missing"),
				logging.String(logging.FieldErrorHint, "try a larger model or the chapters pipeline"),
			)
			continue
		}

		accepted := 0
		for _, sec := range found {
			var (
				out Section
				ok  bool
			)
			if j.quality == config.QualityFast || strings.EqualFold(sec.Category, categories.Routine) {
				out, ok = j.inlineAccept(sec, chunk)
			} else {
				if j.stopped(ctx) {
					return
				}
				out, ok = j.detailAnalyze(ctx, sec, chunk)
			}
			if !ok {
				continue
			}
			j.sections = append(j.sections, out)
			j.writeSection(out)
			accepted++
		}
		j.progress.report(PhaseChunks, span(progressAnalysisStart, progressAnalysisEnd, i+1, len(chunks)),
			fmt.Sprintf("Found %d sections in chunk %d", accepted, chunk.Number))
	}
}

// identify asks for the sections of one chunk, retrying on empty, refused,
// or unparseable replies.
func (j *job) identify(ctx context.Context, chunk transcript.Chunk) ([]response.Section, error) {
	prompt, err := j.a.builder.Sections(prompts.SectionRequest{
		Title:              j.opts.Title,
		CustomInstructions: j.opts.CustomInstructions,
		Categories:         j.configured,
		ChunkNumber:        chunk.Number,
		Transcript:         chunk.Text,
		MaxChars:           j.a.capacity.MaxChars,
	})
	if err != nil {
		return nil, err
	}
	return WithRetries(ctx, j.retryAttempts(), func(ctx context.Context, attempt int) ([]response.Section, error) {
		text, err := j.generate(ctx, prompt)
		if err != nil {
			j.logRetry("chunk", chunk.Number, attempt, err)
			return nil, err
		}
		parsed := j.a.parser.Sections(text)
		if len(parsed) == 0 {
			err := unusable(text)
			j.logRetry("chunk", chunk.Number, attempt, err)
			return nil, err
		}
		return categories.Filter(j.validator, parsed,
			func(s response.Section) string { return s.Category },
			func(s *response.Section, name string) { s.Category = name },
		), nil
	})
}

// inlineAccept turns a section into output without another call. Sections
// whose start cannot be located are dropped.
func (j *job) inlineAccept(sec response.Section, chunk transcript.Chunk) (Section, bool) {
	start, ok := j.a.locator.Locate(sec.StartPhrase, chunk.Segments)
	if !ok {
		j.logUnresolved("start_phrase", sec.StartPhrase, chunk.Number)
		return Section{}, false
	}
	out := Section{
		Category:     sec.Category,
		Description:  sec.Description,
		StartTime:    transcript.FormatDisplay(start),
		StartSeconds: start,
		Quotes:       []Quote{},
	}
	if !strings.EqualFold(sec.Category, categories.Routine) {
		if end, ok := j.a.locator.Locate(sec.EndPhrase, chunk.Segments); ok && end > start {
			out.EndTime = transcript.FormatDisplay(end)
		}
	}
	if quote := strings.TrimSpace(sec.Quote); quote != "" {
		ts := j.a.locator.LocateIn(quote, chunk.Segments, start)
		out.Quotes = append(out.Quotes, Quote{Timestamp: transcript.FormatDisplay(ts), Text: quote})
	}
	return out, true
}

// detailAnalyze resolves both ends of a section and asks for verbatim quotes
// from that span. Any unresolved step drops the section.
func (j *job) detailAnalyze(ctx context.Context, sec response.Section, chunk transcript.Chunk) (Section, bool) {
	start, ok := j.a.locator.Locate(sec.StartPhrase, chunk.Segments)
	if !ok {
		j.logUnresolved("start_phrase", sec.StartPhrase, chunk.Number)
		return Section{}, false
	}
	end, ok := j.a.locator.Locate(sec.EndPhrase, chunk.Segments)
	if !ok {
		j.logUnresolved("end_phrase", sec.EndPhrase, chunk.Number)
		return Section{}, false
	}
	if end <= start {
		end = start + detailMinimumSeconds
	}

	within := transcript.Within(j.segments, start, end)
	if len(within) == 0 {
		within = transcript.Within(j.segments, start-detailWidenSeconds, end+detailWidenSeconds)
	}
	if len(within) == 0 {
		j.logger.Debug("section dropped",
			logging.Int(logging.FieldChunk, chunk.Number),
			logging.String("reason", "no segments inside resolved span"),
			logging.Float64("start_seconds", start),
			logging.Float64("end_seconds", end),
		)
		return Section{}, false
	}

	prompt, err := j.a.builder.Quotes(sec.Category, sec.Description,
		transcript.Timestamped(within, quoteMaxSegments, quoteMaxChars))
	if err != nil {
		j.logger.Warn("quote prompt failed", logging.Error(err))
		return Section{}, false
	}
	text, err := j.generate(ctx, prompt)
	if err != nil {
		j.logger.Debug("section dropped",
			logging.Int(logging.FieldChunk, chunk.Number),
			logging.String("reason", "quote request failed"),
			logging.Error(err),
		)
		return Section{}, false
	}
	quotes := j.a.parser.Quotes(text)
	if len(quotes) == 0 {
		j.logger.Debug("section dropped",
			logging.Int(logging.FieldChunk, chunk.Number),
			logging.String("reason", "no quotes parsed"),
		)
		return Section{}, false
	}

	out := Section{
		Category:     sec.Category,
		Description:  sec.Description,
		StartTime:    transcript.FormatDisplay(within[0].Start),
		EndTime:      transcript.FormatDisplay(within[len(within)-1].End),
		StartSeconds: within[0].Start,
		Quotes:       make([]Quote, 0, len(quotes)),
	}
	for _, q := range quotes {
		ts := strings.TrimSpace(q.Timestamp)
		if secs, ok := transcript.ParseDisplay(ts); ok {
			ts = transcript.FormatDisplay(secs)
		}
		out.Quotes = append(out.Quotes, Quote{Timestamp: ts, Text: q.Text, Significance: q.Significance})
	}
	return out, true
}

func (j *job) logUnresolved(field, phrase string, chunk int) {
	j.logger.Debug("phrase not found in transcript",
		logging.String(logging.FieldDecisionType, "phrase_correlation"),
		logging.String("field", field),
		logging.String("phrase", phrase),
		logging.Int(logging.FieldChunk, chunk),
	)
}
