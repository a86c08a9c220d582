package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/prompts"
	"github.com/telltaleatheist/clippy-sub006/internal/response"
	"github.com/telltaleatheist/clippy-sub006/internal/textutil"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

const (
	maxPeopleTags   = 20
	maxTopicTags    = 15
	maxTagSections  = 30
	maxExcerptQuote = 10
)

// synthesizeMetadata fills description, tags, and suggested title. Each step
// has a deterministic fallback, so it never fails the job.
func (j *job) synthesizeMetadata(ctx context.Context, result *Result) {
	j.progress.report(PhaseDescription, progressDescription, "Generating description...")
	result.Description = j.describe(ctx, result)
	if j.opts.Report != nil && result.Description != "" {
		if err := j.opts.Report.WriteOverview(result.Description); err != nil {
			logging.WarnWithContext(j.logger, "report overview failed", "report_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "text report has no overview"),
			)
		}
	}
	if j.stopped(ctx) {
		return
	}

	j.progress.report(PhaseTags, progressTags, "Extracting tags...")
	tags := j.extractTags(ctx, result)
	result.Tags = &tags
	if j.stopped(ctx) {
		return
	}

	j.progress.report(PhaseTitle, progressTitle, "Suggesting title...")
	result.SuggestedTitle = j.suggestTitle(ctx, result)
}

// summaryLines lists one line per chapter, or per section when the job has
// no chapters.
func summaryLines(result *Result) []string {
	var lines []string
	if len(result.Chapters) > 0 {
		for _, c := range result.Chapters {
			line := fmt.Sprintf("%s - %s", transcript.FormatDisplay(c.StartTime), c.Title)
			if c.Summary != "" {
				line += ": " + c.Summary
			}
			lines = append(lines, line)
		}
		return lines
	}
	for _, s := range result.Sections {
		lines = append(lines, fmt.Sprintf("%s [%s] %s", s.StartTime, s.Category, s.Description))
	}
	return lines
}

func (j *job) describe(ctx context.Context, result *Result) string {
	fallback := FallbackOverview(result.Sections)
	prompt, err := j.a.builder.Description(j.opts.Title, summaryLines(result))
	if err != nil {
		return fallback
	}
	text, err := j.generate(ctx, prompt)
	if err != nil {
		j.logger.Info("description fell back to template",
			logging.String(logging.FieldDecisionType, "description_fallback"),
			logging.Error(err),
		)
		return fallback
	}
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "Overview:"))
	if text == "" || isDescriptionRefusal(text) {
		j.logger.Info("description fell back to template",
			logging.String(logging.FieldDecisionType, "description_fallback"),
			logging.String("reason", "refusal or empty reply"),
		)
		return fallback
	}
	return text
}

// FallbackOverview builds a description from category counts.
func FallbackOverview(sections []Section) string {
	if len(sections) == 0 {
		return "No notable sections were identified in this video."
	}
	counts := make(map[string]int)
	var order []string
	for _, s := range sections {
		if _, ok := counts[s.Category]; !ok {
			order = append(order, s.Category)
		}
		counts[s.Category]++
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, counts[name]))
	}
	return fmt.Sprintf("This video contains %d notable section(s) including: %s.",
		len(sections), strings.Join(parts, ", "))
}

func (j *job) extractTags(ctx context.Context, result *Result) response.Tags {
	empty := response.Tags{People: []string{}, Topics: []string{}}

	var b strings.Builder
	for i, s := range result.Sections {
		if i == maxTagSections {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", s.Category, s.Description)
	}
	for _, c := range result.Chapters {
		fmt.Fprintf(&b, "- Chapter: %s\n", c.Title)
	}
	prompt, err := j.a.builder.Tags(b.String(), quoteExcerpt(result.Sections))
	if err != nil {
		return empty
	}
	text, err := j.generate(ctx, prompt)
	if err != nil {
		j.logger.Info("tag extraction skipped", logging.Error(err))
		return empty
	}
	tags := j.a.parser.Tags(text, maxPeopleTags, maxTopicTags)
	for i, p := range tags.People {
		tags.People[i] = textutil.TitleCase(p)
	}
	return tags
}

func quoteExcerpt(sections []Section) string {
	var lines []string
	for _, s := range sections {
		for _, q := range s.Quotes {
			if len(lines) == maxExcerptQuote {
				return strings.Join(lines, "\n")
			}
			lines = append(lines, q.Timestamp+" - "+quoted(q.Text))
		}
	}
	return strings.Join(lines, "\n")
}

func (j *job) suggestTitle(ctx context.Context, result *Result) string {
	var people, topics []string
	if result.Tags != nil {
		people, topics = result.Tags.People, result.Tags.Topics
	}
	prompt, err := j.a.builder.Title(prompts.TitleRequest{
		CurrentTitle: j.opts.Title,
		Description:  result.Description,
		People:       people,
		Topics:       topics,
		Excerpt:      quoteExcerpt(result.Sections),
	})
	if err != nil {
		return ""
	}
	text, err := j.generate(ctx, prompt)
	if err != nil {
		j.logger.Info("title suggestion skipped", logging.Error(err))
		return ""
	}
	title, ok := CleanTitle(text)
	if !ok {
		j.logger.Info("title suggestion rejected",
			logging.String(logging.FieldDecisionType, "title_rejected"),
			logging.String("raw", text),
		)
		return ""
	}
	return title
}
