package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/analysis"
)

func TestAnalyzeCommandPrintsResultAndWritesArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)
	reportPath := filepath.Join(env.baseDir, "out", "report.txt")
	srtPath := filepath.Join(env.baseDir, "out", "sermon.srt")

	out, _, err := runCLI(t, []string{"analyze", env.transcriptPath, "--report", reportPath, "--srt", srtPath}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Suggested title: the pastors sermon on faith")
	requireContains(t, out, "Description: A host claims the election was stolen")
	requireContains(t, out, "People: John Smith")
	requireContains(t, out, "Opening")
	requireContains(t, out, "Sections (1)")
	requireContains(t, out, "conspiracy")
	requireContains(t, out, "Report written to "+reportPath)

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	requireContains(t, string(report), "**VIDEO OVERVIEW**")
	requireContains(t, string(report), "[conspiracy]**")

	srt, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	requireContains(t, string(srt), "00:00:10,000 --> 00:00:20,000")

	listOut, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, listOut, "completed")
	requireContains(t, listOut, "sermon")
}

func TestAnalyzeCommandJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", env.transcriptPath, "--json", "--no-history", "--title", "Sunday service"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result analysis.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Pipeline != "chapters" || result.SectionsCount != 1 || len(result.Chapters) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.Sections[0].Description, `"the election being stolen"`) {
		t.Fatalf("flag description should lead with the quote, got %q", result.Sections[0].Description)
	}
	if result.TokenStats == nil || result.TokenStats.APICalls == 0 {
		t.Fatalf("expected token stats, got %+v", result.TokenStats)
	}

	listOut, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, listOut, "No jobs recorded")
}

func TestAnalyzeCommandRejectsUnknownPipeline(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"analyze", env.transcriptPath, "--pipeline", "single"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--pipeline must be one of") {
		t.Fatalf("expected pipeline validation error, got %v", err)
	}
	if env.ollama.calls() != 0 {
		t.Fatalf("no model calls expected, got %d", env.ollama.calls())
	}
}

func TestAnalyzeCommandFailsWhenModelMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.ollama.setModel("other-model")

	_, _, err := runCLI(t, []string{"analyze", env.transcriptPath}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "ollama pull test-model:7b") {
		t.Fatalf("expected missing model error, got %v", err)
	}
	if env.ollama.calls() != 0 {
		t.Fatalf("analysis must not start when the probe fails, got %d calls", env.ollama.calls())
	}
}

func TestCheckModelCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check-model"}, env.configPath)
	if err != nil {
		t.Fatalf("check-model: %v", err)
	}
	requireContains(t, out, "Checking ollama model test-model:7b")
	requireContains(t, out, "Model ready")
}
