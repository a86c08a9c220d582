package prompts_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/prompts"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

func disabled() *bool {
	v := false
	return &v
}

func TestRenderReplacesEveryOccurrenceLiterally(t *testing.T) {
	got := prompts.Render("{a} and {a} but not {b} or {{a}}", map[string]string{"a": "x", "c": "{a}"})
	if got != "x and x but not {b} or {x}" {
		t.Fatalf("Render = %q", got)
	}
}

func TestRenderDoesNotExpandValues(t *testing.T) {
	got := prompts.Render("{transcript}", map[string]string{"transcript": "he said {category}", "category": "hate"})
	if got != "he said {category}" {
		t.Fatalf("Render = %q", got)
	}
}

func TestSectionsRequiresCategories(t *testing.T) {
	b := prompts.NewBuilder(nil)
	tests := []struct {
		name string
		cats []config.Category
	}{
		{"empty", nil},
		{"all disabled", []config.Category{{Name: "hate", Enabled: disabled()}, {Name: "routine", Enabled: disabled()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Sections(prompts.SectionRequest{Categories: tt.cats, Transcript: "text"})
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !services.IsFatal(err) {
				t.Fatal("expected fatal classification")
			}
		})
	}
}

func TestSectionsEmbedsContextAndTruncates(t *testing.T) {
	b := prompts.NewBuilder(nil)
	prompt, err := b.Sections(prompts.SectionRequest{
		Title:              "Sunday Service",
		CustomInstructions: "Focus on finances.",
		Categories: []config.Category{
			{Name: "prosperity-gospel", Description: "asks for money"},
			{Name: "hate", Enabled: disabled()},
		},
		ChunkNumber: 3,
		Transcript:  strings.Repeat("a", 50) + "TAIL",
		MaxChars:    50,
	})
	if err != nil {
		t.Fatalf("Sections returned error: %v", err)
	}
	for _, want := range []string{"Sunday Service", "Focus on finances.", "- prosperity-gospel: asks for money", "chunk 3", `{"sections"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
	if strings.Contains(prompt, "- hate") {
		t.Fatal("disabled category leaked into prompt")
	}
	if strings.Contains(prompt, "TAIL") {
		t.Fatal("expected transcript to be truncated")
	}
}

func TestBoundariesFirstChunkNote(t *testing.T) {
	b := prompts.NewBuilder(nil)
	first, err := b.Boundaries(prompts.BoundaryRequest{ChunkNumber: 1, First: true, Transcript: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(first, "do not report a boundary at the very start") {
		t.Fatal("expected first-chunk instruction")
	}
	later, _ := b.Boundaries(prompts.BoundaryRequest{ChunkNumber: 2, PreviousTopic: "tax policy", Transcript: "x"})
	if strings.Contains(later, "do not report a boundary") || !strings.Contains(later, "tax policy") {
		t.Fatalf("unexpected later prompt: %s", later)
	}
}

func TestChapterCategoryPolicy(t *testing.T) {
	b := prompts.NewBuilder(nil)
	req := prompts.ChapterRequest{
		Categories:    []categories.Category{{Name: "hate"}},
		ChapterNumber: 2,
		Start:         "1:00",
		End:           "5:00",
		Transcript:    "words",
	}
	closed, _ := b.Chapter(req)
	req.OpenCategories = true
	req.PreviousSummary = "they discussed taxes"
	open, _ := b.Chapter(req)
	if !strings.Contains(closed, "Use only the category names") {
		t.Fatal("expected closed policy")
	}
	if !strings.Contains(open, "new short lowercase category") || !strings.Contains(open, "they discussed taxes") {
		t.Fatal("expected open policy and previous summary")
	}
	if !strings.Contains(closed, "(none, this is the first chapter)") {
		t.Fatal("expected placeholder for missing previous summary")
	}
}

func TestDescriptionCapsSummaries(t *testing.T) {
	b := prompts.NewBuilder(nil)
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = "line-" + string(rune('A'+i))
	}
	prompt, _ := b.Description("", lines)
	if !strings.Contains(prompt, "line-T") || strings.Contains(prompt, "line-U") {
		t.Fatal("expected only the first 20 summary lines")
	}
}

func TestStoreOverridesAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.yaml")
	if err := os.WriteFile(path, []byte("name: tags\nprompt: |\n  custom {sections_context}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := prompts.NewStore(dir, time.Hour, nil)
	b := prompts.NewBuilder(store)

	got, err := b.Tags("CTX", "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != "custom CTX" {
		t.Fatalf("expected override, got %q", got)
	}

	if err := os.WriteFile(path, []byte("prompt: changed {sections_context}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cached, _ := b.Tags("CTX", "")
	if strings.TrimSpace(cached) != "custom CTX" {
		t.Fatalf("expected cached template within TTL, got %q", cached)
	}

	store.Invalidate()
	fresh, _ := b.Tags("CTX", "")
	if fresh != "changed CTX" {
		t.Fatalf("expected reloaded template, got %q", fresh)
	}

	defaultQuotes, err := store.Template(prompts.NameQuotes)
	if err != nil || !strings.Contains(defaultQuotes, "{timestamped_transcript}") {
		t.Fatalf("expected built-in quotes template, got %v", err)
	}
	if _, err := store.Template("nope"); err == nil {
		t.Fatal("expected unknown template error")
	}
}

func TestStoreReloadsOverrideAfterTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.yaml")
	if err := os.WriteFile(path, []byte("prompt: first {sections_context}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	store := prompts.NewStore(dir, time.Minute, nil, prompts.WithClock(func() time.Time { return now }))

	got, err := store.Template(prompts.NameTags)
	if err != nil || got != "first {sections_context}" {
		t.Fatalf("expected first override, got %q (%v)", got, err)
	}
	if err := os.WriteFile(path, []byte("prompt: second {sections_context}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if got, _ := store.Template(prompts.NameTags); got != "first {sections_context}" {
		t.Fatalf("expected cached template before TTL, got %q", got)
	}

	now = now.Add(time.Second)
	if got, _ := store.Template(prompts.NameTags); got != "second {sections_context}" {
		t.Fatalf("expected reload once TTL elapsed, got %q", got)
	}
}

func TestStoreIgnoresInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "title.yml"), []byte("prompt: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := prompts.NewStore(dir, time.Minute, nil)
	tpl, err := store.Template(prompts.NameTitle)
	if err != nil {
		t.Fatal(err)
	}
	builtin, _ := prompts.Default(prompts.NameTitle)
	if tpl != builtin {
		t.Fatal("expected built-in template when override is invalid")
	}
}

func TestEveryNamedTemplateHasDefault(t *testing.T) {
	for _, name := range prompts.Names {
		if tpl, ok := prompts.Default(name); !ok || tpl == "" {
			t.Fatalf("missing default template %q", name)
		}
	}
}
