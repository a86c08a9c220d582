package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
	"github.com/telltaleatheist/clippy-sub006/internal/testsupport"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

// Substrings that identify each prompt template.
const (
	matchSections    = "Identify every notable section"
	matchQuotes      = "Extract the 2-4 most significant quotes"
	matchBoundaries  = "report where the topic of discussion clearly changes"
	matchChapter     = "You are analyzing one chapter"
	matchDescription = "Write a 2-3 sentence overview"
	matchTags        = "Extract tags for this video"
	matchTitle       = "Suggest a filename"
)

type recordingSink struct {
	mu       sync.Mutex
	sections []Section
	overview string
}

func (r *recordingSink) WriteSection(s Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections = append(r.sections, s)
	return nil
}

func (r *recordingSink) WriteOverview(description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overview = description
	return nil
}

type progressEvent struct {
	phase   string
	percent float64
}

func sermonSegments() []transcript.Segment {
	return testsupport.Segments(10,
		"welcome back to the show everyone",
		"today we talk about the election being stolen",
		"they rigged the machines in every state",
		"anyway thanks for watching and goodbye",
	)
}

func metadataRules() []testsupport.Rule {
	return []testsupport.Rule{
		{Match: matchDescription, Replies: []string{"A host claims the election was stolen through rigged machines."}},
		{Match: matchTags, Replies: []string{`{"people": ["john smith"], "topics": ["election fraud", "voting machines"]}`}},
		{Match: matchTitle, Replies: []string{"2024-01-05 - The Pastor's Sermon On Faith.mp4"}},
	}
}

func newTestAnalyzer(t *testing.T, gen llm.Generator, opts ...testsupport.ConfigOption) *Analyzer {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return New(gen, cfg, logging.NewNop())
}

func TestAnalyzeMusicOnlyTranscriptFallsBack(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 60, Text: strings.Repeat("[music] ", 10)},
		{Start: 60, End: 120, Text: ""},
	}
	gen := testsupport.NewScriptedGenerator(testsupport.Rule{Match: matchSections, Replies: []string{`{"sections": []}`}})
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityFast))

	sink := &recordingSink{}
	result, err := a.Analyze(context.Background(), Options{Segments: segments, Report: sink})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Sections) != 1 {
		t.Fatalf("expected a single fallback section, got %+v", result.Sections)
	}
	s := result.Sections[0]
	if s.Category != "routine" || s.Description != FallbackMusic {
		t.Fatalf("unexpected fallback section %+v", s)
	}
	if s.StartTime != "0:00" || s.EndTime != "2:00" {
		t.Fatalf("fallback should span the video, got %s-%s", s.StartTime, s.EndTime)
	}
	if len(result.FailedUnits) != 1 || result.FailedUnits[0] != 1 {
		t.Fatalf("expected chunk 1 recorded as failed, got %v", result.FailedUnits)
	}
	if got := gen.CountMatching(matchSections); got != 2 {
		t.Fatalf("expected identify to use the retry budget of 2, got %d calls", got)
	}
	if len(sink.sections) != 1 {
		t.Fatalf("fallback section should reach the report, got %d", len(sink.sections))
	}
}

func TestAnalyzeEmptyRepliesStillProducesMetadata(t *testing.T) {
	gen := testsupport.NewScriptedGenerator()
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityThorough))

	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments()})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.SectionsCount != 1 || result.Sections[0].Description != FallbackGeneric {
		t.Fatalf("expected generic fallback section, got %+v", result.Sections)
	}
	if result.Description == "" {
		t.Fatal("description must fall back to a template")
	}
	if result.Tags == nil || len(result.Tags.People) != 0 || len(result.Tags.Topics) != 0 {
		t.Fatalf("expected empty tags, got %+v", result.Tags)
	}
	if result.SuggestedTitle != "" {
		t.Fatalf("expected no title, got %q", result.SuggestedTitle)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"tags":{"people":[],"topics":[]}`) {
		t.Fatalf("tags should serialize as empty lists: %s", body)
	}
	if strings.Contains(body, "suggested_title") {
		t.Fatalf("suggested_title should be omitted: %s", body)
	}
}

func TestAnalyzeChunksThoroughResolvesQuotes(t *testing.T) {
	rules := append([]testsupport.Rule{
		{Match: matchSections, Replies: []string{`{"sections": [
			{"start_phrase": "today we talk about the election", "end_phrase": "rigged the machines in every state", "category": "Conspiracy", "description": "Claims the election was stolen", "quote": "the election being stolen"},
			{"start_phrase": "welcome back to the show", "end_phrase": "welcome back to the show everyone", "category": "routine", "description": "Intro", "quote": ""},
			{"start_phrase": "anyway thanks for watching", "end_phrase": "goodbye", "category": "gardening", "description": "Not a configured category", "quote": ""}
		]}`}},
		{Match: matchQuotes, Replies: []string{`{"quotes": [{"timestamp": "[00:12]", "text": "the election being stolen", "significance": "Core claim of the segment."}]}`}},
	}, metadataRules()...)
	gen := testsupport.NewScriptedGenerator(rules...)
	gen.Tokens = 10
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityThorough))

	sink := &recordingSink{}
	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments(), Report: sink, Title: "sermon.mp4"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.SectionsCount != 2 {
		t.Fatalf("expected 2 sections, got %+v", result.Sections)
	}

	conspiracy := result.Sections[0]
	if conspiracy.Category != "conspiracy" {
		t.Fatalf("category should be canonicalized, got %q", conspiracy.Category)
	}
	if conspiracy.StartTime != "0:10" || conspiracy.EndTime != "0:20" {
		t.Fatalf("unexpected span %s-%s", conspiracy.StartTime, conspiracy.EndTime)
	}
	if len(conspiracy.Quotes) != 1 || conspiracy.Quotes[0].Timestamp != "0:12" {
		t.Fatalf("unexpected quotes %+v", conspiracy.Quotes)
	}

	routine := result.Sections[1]
	if routine.StartTime != "0:00" || routine.EndTime != "" {
		t.Fatalf("routine section accepted inline without end, got %+v", routine)
	}
	if got := gen.CountMatching(matchQuotes); got != 1 {
		t.Fatalf("only the non-routine section gets a detail pass, got %d", got)
	}

	if result.Description != "A host claims the election was stolen through rigged machines." {
		t.Fatalf("unexpected description %q", result.Description)
	}
	if sink.overview != result.Description {
		t.Fatalf("overview not written to report: %q", sink.overview)
	}
	if len(result.Tags.People) != 1 || result.Tags.People[0] != "John Smith" {
		t.Fatalf("unexpected people %v", result.Tags.People)
	}
	if result.SuggestedTitle != "the pastors sermon on faith" {
		t.Fatalf("unexpected title %q", result.SuggestedTitle)
	}

	calls := gen.Calls()
	if result.TokenStats.APICalls != calls || result.TokenStats.TotalTokens != calls*20 {
		t.Fatalf("token stats %+v do not match %d calls", result.TokenStats, calls)
	}
}

func TestAnalyzeChunksFastAcceptsInline(t *testing.T) {
	rules := append([]testsupport.Rule{
		{Match: matchSections, Replies: []string{`{"sections": [
			{"start_phrase": "they rigged the machines", "end_phrase": "anyway thanks for watching", "category": "conspiracy", "description": "Machines were rigged", "quote": "rigged the machines in every state"},
			{"start_phrase": "this phrase is nowhere in the transcript at all", "end_phrase": "nor this", "category": "conspiracy", "description": "Hallucinated", "quote": ""}
		]}`}},
	}, metadataRules()...)
	gen := testsupport.NewScriptedGenerator(rules...)
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityFast))

	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments()})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.SectionsCount != 1 {
		t.Fatalf("unresolvable section should be dropped, got %+v", result.Sections)
	}
	s := result.Sections[0]
	if s.StartTime != "0:20" || s.EndTime != "0:30" {
		t.Fatalf("unexpected span %s-%s", s.StartTime, s.EndTime)
	}
	if len(s.Quotes) != 1 || s.Quotes[0].Timestamp != "0:20" {
		t.Fatalf("inline quote not resolved: %+v", s.Quotes)
	}
	if gen.CountMatching(matchQuotes) != 0 {
		t.Fatal("fast mode must not request quote extraction")
	}
}

func TestAnalyzeChaptersFlagsAndDedup(t *testing.T) {
	rules := append([]testsupport.Rule{
		{Match: matchBoundaries, Replies: []string{`{"boundaries": [{"phrase": "they rigged the machines", "topic": "fraud"}], "topic_summary": "election claims"}`}},
		{Match: matchChapter, Replies: []string{
			`{"title": "Opening", "summary": "The host opens with the election.", "flags": [{"category": "conspiracy", "description": "Stolen election claim", "quote": "the election being stolen"}]}`,
			`{"title": "", "summary": "Machines were rigged.", "flags": [
				{"category": "conspiracy", "description": "Rigged machines", "quote": "rigged the machines"},
				{"category": "conspiracy", "description": "Every state", "quote": "in every state"},
				{"category": "gardening", "description": "Unknown", "quote": "goodbye"}
			]}`,
		}},
	}, metadataRules()...)
	gen := testsupport.NewScriptedGenerator(rules...)
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChapters, ""))

	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments()})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %+v", result.Chapters)
	}
	if result.Chapters[0].EndTime != 20 || result.Chapters[1].StartTime != 20 || result.Chapters[1].EndTime != 40 {
		t.Fatalf("chapters not contiguous: %+v", result.Chapters)
	}
	if result.Chapters[1].Title != "Chapter 2" {
		t.Fatalf("blank title should be replaced, got %q", result.Chapters[1].Title)
	}
	if result.SectionsCount != 2 {
		t.Fatalf("expected unknown category dropped and duplicate merged, got %+v", result.Sections)
	}
	first := result.Sections[0]
	if first.Description != `"the election being stolen" — Stolen election claim` {
		t.Fatalf("unexpected flag description %q", first.Description)
	}
	if first.StartTime != "0:10" || first.EndTime != "0:20" {
		t.Fatalf("flag window should be clamped to the chapter, got %s-%s", first.StartTime, first.EndTime)
	}
	if second := result.Sections[1]; second.StartTime != "0:20" {
		t.Fatalf("unexpected second flag %+v", second)
	}

	prompts := gen.Prompts()
	var secondChapter string
	for _, p := range prompts {
		if strings.Contains(p, matchChapter) && strings.Contains(p, "CHAPTER 2") {
			secondChapter = p
		}
	}
	if !strings.Contains(secondChapter, "The host opens with the election.") {
		t.Fatal("previous chapter summary should be carried into the next prompt")
	}
}

func TestAnalyzeProgressIsMonotonic(t *testing.T) {
	gen := testsupport.NewScriptedGenerator(metadataRules()...)
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityFast))

	var events []progressEvent
	_, err := a.Analyze(context.Background(), Options{
		Segments: sermonSegments(),
		OnProgress: func(phase string, percent float64, message string) {
			events = append(events, progressEvent{phase, percent})
		},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(events); i++ {
		if events[i].percent < events[i-1].percent {
			t.Fatalf("progress went backwards at %d: %+v", i, events)
		}
	}
	last := events[len(events)-1]
	if last.phase != PhaseComplete || last.percent != 100 {
		t.Fatalf("expected completion at 100, got %+v", last)
	}
	seen := map[string]bool{}
	for _, e := range events {
		seen[e.phase] = true
	}
	for _, phase := range []string{PhaseDescription, PhaseTags, PhaseTitle} {
		if !seen[phase] {
			t.Fatalf("phase %s not reported: %+v", phase, events)
		}
	}
}

func TestAnalyzeCancellationReturnsPartialResult(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 10, Text: "they rigged the machines in every state"},
		{Start: 400, End: 410, Text: "second chunk talks about the weather"},
		{Start: 800, End: 810, Text: "third chunk says goodbye to everyone"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := testsupport.NewScriptedGenerator(testsupport.Rule{Match: matchSections, Replies: []string{
		`{"sections": [{"start_phrase": "they rigged the machines", "end_phrase": "in every state", "category": "routine", "description": "Rigged", "quote": ""}]}`,
	}})
	gen.OnCall = func(n int, prompt string) {
		if n == 1 {
			cancel()
		}
	}
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityThorough))

	result, err := a.Analyze(ctx, Options{Segments: segments})
	if err != nil {
		t.Fatalf("cancellation is not a failure: %v", err)
	}
	if !result.Canceled {
		t.Fatal("expected Canceled to be set")
	}
	if result.SectionsCount != 1 {
		t.Fatalf("expected the first chunk's section, got %+v", result.Sections)
	}
	if gen.Calls() != 1 {
		t.Fatalf("no calls should follow cancellation, got %d", gen.Calls())
	}
	if result.Description != "" || result.Tags != nil {
		t.Fatal("metadata should be skipped for a canceled job")
	}
}

func TestAnalyzeRejectsUnusableCategories(t *testing.T) {
	gen := testsupport.NewScriptedGenerator()
	a := newTestAnalyzer(t, gen)

	var lastPhase string
	_, err := a.Analyze(context.Background(), Options{
		JobID:      "job-1",
		Segments:   sermonSegments(),
		Categories: []config.Category{testsupport.Disabled("hate", "Hate speech")},
		OnProgress: func(phase string, percent float64, message string) { lastPhase = phase },
	})
	var jobErr *JobError
	if !errors.As(err, &jobErr) || jobErr.JobID != "job-1" {
		t.Fatalf("expected JobError for job-1, got %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if gen.Calls() != 0 {
		t.Fatal("no model calls should be made before categories validate")
	}
	if lastPhase != PhaseFailed {
		t.Fatalf("expected failed progress event, got %q", lastPhase)
	}
}

func TestAnalyzeRejectsUnknownPipeline(t *testing.T) {
	a := newTestAnalyzer(t, testsupport.NewScriptedGenerator())
	_, err := a.Analyze(context.Background(), Options{Segments: sermonSegments(), Pipeline: "everything"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAnalyzeRecoversFromPanics(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (llm.Completion, error) {
		panic("generator exploded")
	})
	a := newTestAnalyzer(t, gen)

	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments()})
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
	var jobErr *JobError
	if !errors.As(err, &jobErr) || !strings.Contains(err.Error(), "generator exploded") {
		t.Fatalf("expected JobError describing the panic, got %v", err)
	}
	if jobErr.JobID == "" {
		t.Fatal("job id should default to a generated value")
	}
}

func TestAnalyzeRefusalsAreRetried(t *testing.T) {
	rules := append([]testsupport.Rule{
		{Match: matchSections, Replies: []string{
			"I'm sorry, but I can't analyze this content.",
			`{"sections": [{"start_phrase": "welcome back to the show", "end_phrase": "everyone", "category": "routine", "description": "Intro", "quote": ""}]}`,
		}},
	}, metadataRules()...)
	gen := testsupport.NewScriptedGenerator(rules...)
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChunks, config.QualityFast))

	result, err := a.Analyze(context.Background(), Options{Segments: sermonSegments()})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if gen.CountMatching(matchSections) != 2 {
		t.Fatalf("refusal should be retried once, got %d identify calls", gen.CountMatching(matchSections))
	}
	if result.SectionsCount != 1 || result.Sections[0].Description != "Intro" {
		t.Fatalf("unexpected sections %+v", result.Sections)
	}
	if len(result.FailedUnits) != 0 {
		t.Fatalf("no chunk should fail, got %v", result.FailedUnits)
	}
}

func TestAnalyzeChapterRepliesQuotingApologiesAreKept(t *testing.T) {
	segments := testsupport.Segments(10,
		"i'm sorry folks but i can't stay quiet about this",
		`the official said "no recount" and walked away`,
		"they are hiding the real numbers from us",
	)
	rules := append([]testsupport.Rule{
		{Match: matchBoundaries, Replies: []string{`{"boundaries": [], "topic_summary": "Host says I'm sorry but I can't stay quiet."}`}},
		{Match: matchChapter, Replies: []string{`{"title": "Rant", "summary": "Host says I can't stay quiet.", "flags": [
			{"category": "conspiracy", "description": "Hidden vote counts", "quote": "said \"no recount\""}
		]}`}},
	}, metadataRules()...)
	gen := testsupport.NewScriptedGenerator(rules...)
	a := newTestAnalyzer(t, gen, testsupport.WithPipeline(config.PipelineChapters, ""))

	result, err := a.Analyze(context.Background(), Options{Segments: segments})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := gen.CountMatching(matchBoundaries); got != 1 {
		t.Fatalf("boundary reply quoting an apology should be accepted, got %d calls", got)
	}
	if got := gen.CountMatching(matchChapter); got != 1 {
		t.Fatalf("chapter reply quoting an apology should be accepted, got %d calls", got)
	}
	if len(result.FailedUnits) != 0 {
		t.Fatalf("no unit should fail, got %v", result.FailedUnits)
	}
	if len(result.Chapters) != 1 || result.Chapters[0].Title != "Rant" {
		t.Fatalf("expected the Rant chapter, got %+v", result.Chapters)
	}
	if result.SectionsCount != 1 {
		t.Fatalf("expected the flag section only, got %+v", result.Sections)
	}
	s := result.Sections[0]
	if s.Category != "conspiracy" {
		t.Fatalf("unexpected category %q", s.Category)
	}
	if want := `"said "no recount"" — Hidden vote counts`; s.Description != want {
		t.Fatalf("quote should be wrapped without escaping: got %q want %q", s.Description, want)
	}
}

func TestQuoteExcerptKeepsInnerQuotes(t *testing.T) {
	sections := []Section{{Quotes: []Quote{{Timestamp: "1:05", Text: `he said "no"`}}}}
	if got, want := quoteExcerpt(sections), `1:05 - "he said "no""`; got != want {
		t.Fatalf("quoteExcerpt = %q, want %q", got, want)
	}
}
