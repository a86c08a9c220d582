package response

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/telltaleatheist/clippy-sub006/internal/logging"
)

// Parser decodes model replies. The zero value discards its logs.
type Parser struct {
	logger *slog.Logger
}

// NewParser returns a parser that reports fallbacks through logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logging.NewComponentLogger(logger, "response")}
}

func (p *Parser) log() *slog.Logger {
	if p == nil || p.logger == nil {
		return logging.NewNop()
	}
	return p.logger
}

// Sections parses a section-identification reply. Entries missing any of
// start_phrase, end_phrase, category, or description are skipped. A category
// holding several comma-separated names yields one section per name.
func (p *Parser) Sections(text string) []Section {
	if span, ok := ExtractObject(text, "sections"); ok {
		var out []Section
		skipped := 0
		gjson.Get(span, "sections").ForEach(func(_, entry gjson.Result) bool {
			start, ok1 := field(entry, "start_phrase")
			end, ok2 := field(entry, "end_phrase")
			category, ok3 := field(entry, "category")
			description, ok4 := field(entry, "description")
			if !(ok1 && ok2 && ok3 && ok4) {
				skipped++
				return true
			}
			quote, _ := field(entry, "quote")
			out = append(out, splitCategories(Section{
				StartPhrase: start,
				EndPhrase:   end,
				Category:    category,
				Description: description,
				Quote:       quote,
			})...)
			return true
		})
		if skipped > 0 {
			p.log().Debug("incomplete section entries skipped", logging.Int("skipped", skipped))
		}
		return out
	}

	if strings.Contains(text, "Section ") || strings.Contains(text, "section ") {
		sections := parseLegacySections(text)
		logging.WarnWithContext(p.log(), "section reply was not JSON; used legacy text grammar", "response_legacy_sections",
			logging.Int("sections", len(sections)),
			logging.String(logging.FieldErrorHint, "prefer a model that follows JSON instructions"),
			logging.String("snippet", snippet(text)),
		)
		return sections
	}

	logging.WarnWithContext(p.log(), "section reply unparseable", "response_parse_failed",
		logging.String("snippet", snippet(text)),
		logging.String(logging.FieldImpact, "chunk treated as having no sections"),
	)
	return nil
}

// splitCategories expands "hate, violence" into one section per category.
func splitCategories(s Section) []Section {
	if !strings.Contains(s.Category, ",") {
		return []Section{s}
	}
	var out []Section
	for _, name := range strings.Split(s.Category, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		clone := s
		clone.Category = name
		out = append(out, clone)
	}
	return out
}

var legacySectionSplit = regexp.MustCompile(`[Ss]ection `)

func parseLegacySections(text string) []Section {
	parts := legacySectionSplit.Split(text, -1)
	var out []Section
	for _, part := range parts[1:] {
		var s Section
		var have [4]bool
		for _, line := range strings.Split(part, "\n") {
			line = strings.TrimSpace(line)
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "start:"):
				s.StartPhrase, have[0] = legacyValue(line, "start:"), true
			case strings.HasPrefix(lower, "end:"):
				s.EndPhrase, have[1] = legacyValue(line, "end:"), true
			case strings.HasPrefix(lower, "category:"):
				s.Category, have[2] = legacyValue(line, "category:"), true
			case strings.HasPrefix(lower, "description:"):
				s.Description, have[3] = legacyValue(line, "description:"), true
			}
		}
		if have[0] && have[1] && have[2] && have[3] {
			out = append(out, splitCategories(s)...)
		}
	}
	return out
}

func legacyValue(line, marker string) string {
	return unquote(strings.TrimSpace(line[len(marker):]))
}

func unquote(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimSpace(strings.Trim(value, `"'“”`))
}

// Quotes parses a quote-extraction reply. JSON entries need timestamp, text,
// and significance. The legacy grammar recognizes timestamp:, quote:, and
// significance: markers anywhere in a line.
func (p *Parser) Quotes(text string) []Quote {
	if span, ok := ExtractObject(text, "quotes"); ok {
		var out []Quote
		gjson.Get(span, "quotes").ForEach(func(_, entry gjson.Result) bool {
			ts, ok1 := field(entry, "timestamp")
			body, ok2 := field(entry, "text")
			sig, ok3 := field(entry, "significance")
			if ok1 && ok2 && ok3 {
				out = append(out, Quote{Timestamp: strings.Trim(ts, "[]"), Text: unquote(body), Significance: sig})
			}
			return true
		})
		return out
	}

	quotes := parseLegacyQuotes(text)
	if len(quotes) > 0 {
		logging.WarnWithContext(p.log(), "quote reply was not JSON; used legacy text grammar", "response_legacy_quotes",
			logging.Int("quotes", len(quotes)),
			logging.String(logging.FieldErrorHint, "prefer a model that follows JSON instructions"),
		)
		return quotes
	}
	logging.WarnWithContext(p.log(), "quote reply unparseable", "response_parse_failed",
		logging.String("snippet", snippet(text)),
		logging.String(logging.FieldImpact, "section has no quotes"),
	)
	return nil
}

func parseLegacyQuotes(text string) []Quote {
	var out []Quote
	var current *Quote
	flush := func() {
		if current != nil && current.Timestamp != "" && current.Text != "" {
			out = append(out, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "timestamp:"):
			flush()
			value := afterMarker(line, lower, "timestamp:")
			current = &Quote{Timestamp: strings.TrimSpace(strings.Trim(value, "[] "))}
		case strings.Contains(lower, "quote:"):
			if current != nil {
				current.Text = unquote(afterMarker(line, lower, "quote:"))
			}
		case strings.Contains(lower, "significance:"):
			if current != nil {
				current.Significance = strings.TrimSpace(afterMarker(line, lower, "significance:"))
			}
		}
	}
	flush()
	return out
}

// afterMarker returns the part of line following marker, matched
// case-insensitively through its lowercase twin.
func afterMarker(line, lower, marker string) string {
	idx := strings.Index(lower, marker)
	if idx < 0 || len(lower) != len(line) {
		// Lowercasing changed byte lengths; fall back to a plain split.
		if i := strings.Index(line, ":"); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
		return ""
	}
	return strings.TrimSpace(line[idx+len(marker):])
}

// Boundaries parses a boundary-detection reply. There is no legacy grammar.
func (p *Parser) Boundaries(text string) Boundaries {
	span, ok := ExtractObject(text, "boundaries")
	if !ok {
		logging.WarnWithContext(p.log(), "boundary reply unparseable", "response_parse_failed",
			logging.String("snippet", snippet(text)),
			logging.String(logging.FieldImpact, "no topic changes recorded for chunk"),
		)
		return Boundaries{}
	}
	var out Boundaries
	gjson.Get(span, "boundaries").ForEach(func(_, entry gjson.Result) bool {
		var phrase string
		if entry.Type == gjson.String {
			phrase = strings.TrimSpace(entry.String())
		} else {
			phrase, _ = field(entry, "phrase")
		}
		if phrase = unquote(phrase); phrase != "" {
			out.Phrases = append(out.Phrases, phrase)
		}
		return true
	})
	out.TopicSummary, _ = field(gjson.Parse(span), "topic_summary")
	return out
}

// ChapterAnalysis parses a chapter-analysis reply. The bool is false when no
// usable object carries a title or summary.
func (p *Parser) ChapterAnalysis(text string) (ChapterAnalysis, bool) {
	span, ok := ExtractObject(text, "title")
	if !ok {
		span, ok = ExtractObject(text, "summary")
	}
	if !ok {
		logging.WarnWithContext(p.log(), "chapter reply unparseable", "response_parse_failed",
			logging.String("snippet", snippet(text)),
			logging.String(logging.FieldImpact, "chapter omitted"),
		)
		return ChapterAnalysis{}, false
	}
	root := gjson.Parse(span)
	var out ChapterAnalysis
	out.Title, _ = field(root, "title")
	out.Summary, _ = field(root, "summary")
	root.Get("flags").ForEach(func(_, entry gjson.Result) bool {
		category, _ := field(entry, "category")
		description, _ := field(entry, "description")
		quote, _ := field(entry, "quote")
		if category == "" || (description == "" && quote == "") {
			return true
		}
		for _, s := range splitCategories(Section{Category: category, Description: description, Quote: unquote(quote)}) {
			out.Flags = append(out.Flags, Flag{Category: s.Category, Description: s.Description, Quote: s.Quote})
		}
		return true
	})
	if out.Title == "" && out.Summary == "" {
		return ChapterAnalysis{}, false
	}
	return out, true
}

// Tags parses a tag-extraction reply, capping each list. Parse failures yield
// empty, non-nil lists.
func (p *Parser) Tags(text string, maxPeople, maxTopics int) Tags {
	out := Tags{People: []string{}, Topics: []string{}}
	span, ok := ExtractObject(text, "people")
	if !ok {
		span, ok = ExtractObject(text, "topics")
	}
	if !ok {
		logging.WarnWithContext(p.log(), "tag reply unparseable", "response_parse_failed",
			logging.String("snippet", snippet(text)),
			logging.String(logging.FieldImpact, "video has no tags"),
		)
		return out
	}
	root := gjson.Parse(span)
	out.People = stringList(root.Get("people"), maxPeople)
	out.Topics = stringList(root.Get("topics"), maxTopics)
	return out
}

func stringList(value gjson.Result, limit int) []string {
	out := []string{}
	value.ForEach(func(_, item gjson.Result) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}
