package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

func TestChapterSpansCoverDuration(t *testing.T) {
	spans := ChapterSpans([]float64{300, 0, 120, 120, -5, 600, 900}, 600)
	want := []Span{{0, 120}, {120, 300}, {300, 600}}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d: %+v", len(spans), len(want), spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Fatalf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start != spans[i-1].End {
			t.Fatalf("gap between span %d and %d", i-1, i)
		}
	}
}

func TestChapterSpansWithoutBoundaries(t *testing.T) {
	spans := ChapterSpans(nil, 42)
	if len(spans) != 1 || spans[0] != (Span{0, 42}) {
		t.Fatalf("unexpected spans %+v", spans)
	}
	if got := ChapterSpans([]float64{10}, 0); got != nil {
		t.Fatalf("expected nil for empty transcript, got %+v", got)
	}
}

func TestWithRetriesStopsOnSuccess(t *testing.T) {
	calls := 0
	out, err := WithRetries(context.Background(), 3, func(ctx context.Context, attempt int) (string, error) {
		calls++
		if attempt < 2 {
			return "", errEmptyReply
		}
		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestWithRetriesExhausts(t *testing.T) {
	calls := 0
	_, err := WithRetries(context.Background(), 3, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errRefusal
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, services.ErrTransient) || !errors.Is(err, errRefusal) {
		t.Fatalf("expected transient error wrapping refusal, got %v", err)
	}
}

func TestWithRetriesFatalStopsImmediately(t *testing.T) {
	calls := 0
	fatal := services.Wrap(services.ErrUnavailable, "llm", "generate", "backend down", nil)
	_, err := WithRetries(context.Background(), 5, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, fatal
	})
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestWithRetriesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := WithRetries(ctx, 5, func(ctx context.Context, attempt int) (int, error) {
		calls++
		cancel()
		return 0, errEmptyReply
	})
	if calls != 1 {
		t.Fatalf("expected loop to stop after cancel, got %d calls", calls)
	}
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		model string
		want  Capacity
	}{
		{"llama3.2:3b", Capacity{5, 8000}},
		{"qwen2.5:7b", Capacity{10, 16000}},
		{"phi4:14b", Capacity{15, 24000}},
		{"qwen2.5:32b", Capacity{20, 32000}},
		{"meta-llama/llama-3.1-70b-instruct", Capacity{30, 48000}},
		{"gpt-4o-mini", Capacity{10, 16000}},
		{"cogito:1.5b", Capacity{5, 8000}},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := CapacityFor(tt.model); got != tt.want {
				t.Fatalf("CapacityFor(%q) = %+v, want %+v", tt.model, got, tt.want)
			}
		})
	}
}

func TestIsRefusal(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I cannot help with analyzing this content.", true},
		{"I’m sorry, but that request conflicts with policy.", true},
		{"As an AI language model I must remain neutral.", true},
		{`{"sections": [{"category": "routine"}]}`, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRefusal(tt.text); got != tt.want {
			t.Errorf("IsRefusal(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDescriptionRefusalAnchoredAtStart(t *testing.T) {
	if !isDescriptionRefusal("Sorry, I can't describe this video.") {
		t.Fatal("expected apology to be treated as refusal")
	}
	if isDescriptionRefusal("The host explains why he cannot support the bill.") {
		t.Fatal("description mentioning 'cannot' mid-sentence must be kept")
	}
}

func TestFallbackDescription(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "   ", FallbackNoSpeech},
		{"minimal", "uh hi", FallbackMinimal},
		{"music", "[music] [music] [music] [music] [music] [music] [music] [music]", FallbackMusic},
		{"generic", "we spent the afternoon repairing the fence and talking about the weather", FallbackGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackDescription(tt.text); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackOverviewCountsCategories(t *testing.T) {
	got := FallbackOverview([]Section{
		{Category: "hate"}, {Category: "routine"}, {Category: "hate"},
	})
	want := "This video contains 3 notable section(s) including: hate (2), routine (1)."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	var got []float64
	p := newProgress(func(phase string, percent float64, message string) {
		got = append(got, percent)
	})
	p.report(PhaseChunks, 40, "")
	p.report(PhaseChunks, 20, "")
	p.report(PhaseComplete, 120, "")
	p.fail("boom")
	want := []float64{40, 40, 100, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("report %d = %v, want %v (all %v)", i, got[i], want[i], got)
		}
	}
}
