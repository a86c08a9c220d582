package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

const (
	maxSummaryLines   = 20
	noPreviousSummary = "(none, this is the first chapter)"
	noPreviousTopic   = "(none, this is the start of the video)"
)

// Builder renders analysis prompts from the store's templates.
type Builder struct {
	store *Store
}

// NewBuilder returns a builder backed by store. A nil store serves built-in
// templates.
func NewBuilder(store *Store) *Builder {
	return &Builder{store: store}
}

// RequireCategories returns the enabled categories or a configuration error
// when none remain.
func RequireCategories(configured []config.Category) ([]categories.Category, error) {
	if len(configured) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "prompts", "require categories",
			"no categories configured; add [[categories]] or set paths.categories_file", nil)
	}
	enabled := categories.Enabled(configured)
	if len(enabled) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "prompts", "require categories",
			"every configured category is disabled", nil)
	}
	return enabled, nil
}

// SectionRequest carries the inputs of a section-identification prompt.
type SectionRequest struct {
	Title              string
	CustomInstructions string
	Categories         []config.Category
	ChunkNumber        int
	Transcript         string
	MaxChars           int
}

// Sections renders the section-identification prompt.
func (b *Builder) Sections(req SectionRequest) (string, error) {
	enabled, err := RequireCategories(req.Categories)
	if err != nil {
		return "", err
	}
	tpl, err := b.template(NameSections)
	if err != nil {
		return "", err
	}
	text, _ := Truncate(req.Transcript, req.MaxChars)
	return Render(tpl, map[string]string{
		"title_context":       titleContext(req.Title),
		"custom_instructions": customInstructions(req.CustomInstructions),
		"category_list":       categoryList(enabled),
		"chunk_number":        strconv.Itoa(req.ChunkNumber),
		"transcript":          text,
	}), nil
}

// Quotes renders the quote-extraction prompt.
func (b *Builder) Quotes(category, description, timestamped string) (string, error) {
	tpl, err := b.template(NameQuotes)
	if err != nil {
		return "", err
	}
	return Render(tpl, map[string]string{
		"category":               category,
		"description":            description,
		"timestamped_transcript": timestamped,
	}), nil
}

// BoundaryRequest carries the inputs of a boundary-detection prompt.
type BoundaryRequest struct {
	Title              string
	CustomInstructions string
	ChunkNumber        int
	First              bool
	PreviousTopic      string
	Transcript         string
	MaxChars           int
}

// Boundaries renders the boundary-detection prompt.
func (b *Builder) Boundaries(req BoundaryRequest) (string, error) {
	tpl, err := b.template(NameBoundaries)
	if err != nil {
		return "", err
	}
	previous := strings.TrimSpace(req.PreviousTopic)
	if previous == "" {
		previous = noPreviousTopic
	}
	note := ""
	if req.First {
		note = "This is the beginning of the video. Chapter 1 starts here automatically, so do not report a boundary at the very start of this text.\n"
	}
	text, _ := Truncate(req.Transcript, req.MaxChars)
	return Render(tpl, map[string]string{
		"title_context":       titleContext(req.Title),
		"custom_instructions": customInstructions(req.CustomInstructions),
		"previous_topic":      previous,
		"first_chunk_note":    note,
		"chunk_number":        strconv.Itoa(req.ChunkNumber),
		"transcript":          text,
	}), nil
}

// ChapterRequest carries the inputs of a chapter-analysis prompt.
type ChapterRequest struct {
	Title              string
	CustomInstructions string
	Categories         []categories.Category
	OpenCategories     bool
	ChapterNumber      int
	Start              string
	End                string
	PreviousSummary    string
	// Transcript must already fit the model's character budget.
	Transcript string
}

// Chapter renders the chapter-analysis prompt.
func (b *Builder) Chapter(req ChapterRequest) (string, error) {
	tpl, err := b.template(NameChapter)
	if err != nil {
		return "", err
	}
	previous := strings.TrimSpace(req.PreviousSummary)
	if previous == "" {
		previous = noPreviousSummary
	}
	policy := "Use only the category names listed below.\n"
	if req.OpenCategories {
		policy = "Prefer the category names listed below, but flag anything noteworthy under a new short lowercase category name when none fits.\n"
	}
	return Render(tpl, map[string]string{
		"chapter_start":       req.Start,
		"chapter_end":         req.End,
		"title_context":       titleContext(req.Title),
		"custom_instructions": customInstructions(req.CustomInstructions),
		"previous_summary":    previous,
		"category_policy":     policy,
		"category_list":       categoryList(req.Categories),
		"chapter_number":      strconv.Itoa(req.ChapterNumber),
		"transcript":          req.Transcript,
	}), nil
}

// Description renders the overview prompt from per-section summary lines,
// using at most the first twenty.
func (b *Builder) Description(title string, summaries []string) (string, error) {
	tpl, err := b.template(NameDescription)
	if err != nil {
		return "", err
	}
	if len(summaries) > maxSummaryLines {
		summaries = summaries[:maxSummaryLines]
	}
	return Render(tpl, map[string]string{
		"title_context":    titleContext(title),
		"sections_summary": strings.Join(summaries, "\n"),
	}), nil
}

// Tags renders the tag-extraction prompt.
func (b *Builder) Tags(sectionsContext, excerpt string) (string, error) {
	tpl, err := b.template(NameTags)
	if err != nil {
		return "", err
	}
	return Render(tpl, map[string]string{
		"sections_context": sectionsContext,
		"excerpt":          excerpt,
	}), nil
}

// TitleRequest carries the inputs of a suggested-title prompt.
type TitleRequest struct {
	CurrentTitle string
	Description  string
	People       []string
	Topics       []string
	Excerpt      string
}

// Title renders the suggested-title prompt.
func (b *Builder) Title(req TitleRequest) (string, error) {
	tpl, err := b.template(NameTitle)
	if err != nil {
		return "", err
	}
	return Render(tpl, map[string]string{
		"current_title": orNone(req.CurrentTitle),
		"description":   orNone(req.Description),
		"people_tags":   orNone(strings.Join(req.People, ", ")),
		"topic_tags":    orNone(strings.Join(req.Topics, ", ")),
		"excerpt":       orNone(req.Excerpt),
	}), nil
}

func (b *Builder) template(name string) (string, error) {
	var store *Store
	if b != nil {
		store = b.store
	}
	tpl, err := store.Template(name)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prompts", "load template", name, err)
	}
	return tpl, nil
}

func titleContext(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return fmt.Sprintf("Video title/filename: %q. Use it as context for who and what is discussed.\n", title)
}

func customInstructions(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return "ADDITIONAL INSTRUCTIONS FROM THE USER:\n" + text + "\n"
}

func categoryList(cats []categories.Category) string {
	var b strings.Builder
	for _, c := range cats {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if c.Description != "" {
			b.WriteString(": ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(none)"
	}
	return value
}
