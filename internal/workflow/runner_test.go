package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
	"github.com/telltaleatheist/clippy-sub006/internal/testsupport"
	"github.com/telltaleatheist/clippy-sub006/internal/workflow"
)

type probingGenerator struct {
	*testsupport.ScriptedGenerator
	probeErr error
	probes   int
}

func (p *probingGenerator) Probe(context.Context) error {
	p.probes++
	return p.probeErr
}

func (p *probingGenerator) Provider() string { return "fake" }
func (p *probingGenerator) Model() string    { return "fake-model:7b" }

func sectionsReply() testsupport.Rule {
	return testsupport.Rule{
		Match: "Identify every notable section",
		Replies: []string{`{"sections": [{"start_phrase": "welcome back to the show", "end_phrase": "everyone", "category": "routine", "description": "The host says hello", "quote": "welcome back to the show"}]}`},
	}
}

func TestRunWritesReportHistoryAndSRT(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPipeline(config.PipelineChunks, config.QualityFast))
	store := testsupport.MustOpenHistory(t, cfg)
	dir := testsupport.BaseDir(cfg)
	transcriptPath := testsupport.WriteSegments(t, dir, testsupport.Segments(10,
		"welcome back to the show everyone",
		"today we cover the weekly news",
	))

	gen := &probingGenerator{ScriptedGenerator: testsupport.NewScriptedGenerator(
		sectionsReply(),
		testsupport.Rule{Match: "Write a 2-3 sentence overview", Replies: []string{"A weekly news show."}},
	)}
	runner := workflow.NewRunner(cfg, gen, store, logging.NewNop())

	reportPath := filepath.Join(dir, "out", "weekly.txt")
	srtPath := filepath.Join(dir, "out", "weekly.srt")
	result, err := runner.Run(context.Background(), workflow.Request{
		JobID:          "job-42",
		TranscriptPath: transcriptPath,
		ReportPath:     reportPath,
		SRTPath:        srtPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.probes != 1 {
		t.Fatalf("expected one probe, got %d", gen.probes)
	}
	if result.JobID != "job-42" || result.SectionsCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "**VIDEO OVERVIEW**\n\nA weekly news show.") || !strings.Contains(text, "**0:00 - The host says hello [routine]**") {
		t.Fatalf("unexpected report:\n%s", text)
	}

	srt, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,000 --> 00:00:10,000\nwelcome back to the show everyone") {
		t.Fatalf("unexpected srt:\n%s", srt)
	}

	job, err := store.Get(context.Background(), "job-42")
	if err != nil || job == nil {
		t.Fatalf("history missing job: %v", err)
	}
	if job.Status != history.StatusCompleted || job.Model != "fake-model:7b" || job.Pipeline != config.PipelineChunks {
		t.Fatalf("unexpected history row %+v", job)
	}
	if job.Title != "transcript" {
		t.Fatalf("title should default to the transcript name, got %q", job.Title)
	}
	stored, err := workflow.LoadResult(job)
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if stored.Description != "A weekly news show." || stored.SectionsCount != 1 {
		t.Fatalf("stored result mismatch %+v", stored)
	}
}

func TestRunStopsWhenProbeFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	gen := &probingGenerator{
		ScriptedGenerator: testsupport.NewScriptedGenerator(),
		probeErr:          services.Wrap(services.ErrConfiguration, "llm", "probe", "model not installed", nil),
	}
	runner := workflow.NewRunner(cfg, gen, store, logging.NewNop())

	_, err := runner.Run(context.Background(), workflow.Request{
		JobID:    "job-probe",
		Segments: testsupport.Segments(5, "hello there everyone"),
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if gen.Calls() != 0 {
		t.Fatal("no generation should happen after a failed probe")
	}
	if job, _ := store.Get(context.Background(), "job-probe"); job != nil {
		t.Fatalf("a job rejected before analysis should not be recorded: %+v", job)
	}
}

func TestRunRecordsFailedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories())
	store := testsupport.MustOpenHistory(t, cfg)
	runner := workflow.NewRunner(cfg, testsupport.NewScriptedGenerator(), store, logging.NewNop())

	_, err := runner.Run(context.Background(), workflow.Request{
		JobID:     "job-bad",
		Segments:  testsupport.Segments(5, "hello there everyone"),
		SkipProbe: true,
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	job, _ := store.Get(context.Background(), "job-bad")
	if job == nil || job.Status != history.StatusFailed || job.Error == "" {
		t.Fatalf("expected failed history row, got %+v", job)
	}
	if _, err := workflow.LoadResult(job); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("failed job has no result, got %v", err)
	}
}

func TestRunRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := workflow.NewRunner(cfg, testsupport.NewScriptedGenerator(), nil, logging.NewNop())
	if _, err := runner.Run(context.Background(), workflow.Request{SkipProbe: true}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunEmptyTranscriptFallsBackToNoSpeech(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "empty.json")
	testsupport.WriteFile(t, path, "[]")
	runner := workflow.NewRunner(cfg, testsupport.NewScriptedGenerator(), nil, logging.NewNop())

	result, err := runner.Run(context.Background(), workflow.Request{TranscriptPath: path, SkipProbe: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SectionsCount != 1 || !strings.Contains(result.Sections[0].Description, "No speech") {
		t.Fatalf("expected no-speech fallback, got %+v", result.Sections)
	}
}
