package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/testsupport"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

type cliTestEnv struct {
	configPath     string
	baseDir        string
	transcriptPath string
	ollama         *fakeOllama
}

// fakeOllama answers /api/tags and /api/generate, picking a canned reply by
// the first marker found in the prompt.
type fakeOllama struct {
	mu      sync.Mutex
	model   string
	replies map[string]string
	prompts []string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/tags":
		f.mu.Lock()
		model := f.model
		f.mu.Unlock()
		fmt.Fprintf(w, `{"models":[{"name":%q}]}`, model)
	case "/api/generate":
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()
		reply := "ok"
		for marker, text := range f.replies {
			if strings.Contains(req.Prompt, marker) {
				reply = text
				break
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":          reply,
			"prompt_eval_count": 10,
			"eval_count":        5,
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) setModel(model string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
}

func (f *fakeOllama) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func sermonReplies() map[string]string {
	return map[string]string{
		"report where the topic of discussion clearly changes": `{"boundaries": [], "topic_summary": "election claims"}`,
		"You are analyzing one chapter": `{"title": "Opening", "summary": "The host claims the election was stolen.", "flags": [
			{"category": "conspiracy", "description": "Stolen election claim", "quote": "the election being stolen"}]}`,
		"Write a 2-3 sentence overview": "A host claims the election was stolen through rigged machines.",
		"Extract tags for this video":   `{"people": ["john smith"], "topics": ["election fraud"]}`,
		"Suggest a filename":            "2024-01-05 - The Pastor's Sermon On Faith.mp4",
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OLLAMA_HOST", "")

	fake := &fakeOllama{model: "test-model:7b", replies: sermonReplies()}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
prompts_dir = %q

[llm]
provider = "ollama"
model = %q
base_url = %q

[analysis]
pipeline = "chapters"
retry_attempts = 2

[logging]
level = "error"
`, filepath.Join(base, "state"), filepath.Join(base, "logs"), filepath.Join(base, "prompts"), fake.model, srv.URL)
	testsupport.WriteFile(t, configPath, content)

	segs := testsupport.Segments(10,
		"welcome back to the show everyone",
		"today we talk about the election being stolen",
		"they rigged the machines in every state",
		"anyway thanks for watching and goodbye",
	)
	transcriptPath := writeTranscript(t, filepath.Join(base, "sermon.json"), segs)

	return &cliTestEnv{
		configPath:     configPath,
		baseDir:        base,
		transcriptPath: transcriptPath,
		ollama:         fake,
	}
}

func writeTranscript(t *testing.T, path string, segs []transcript.Segment) string {
	t.Helper()
	data, err := json.Marshal(segs)
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	testsupport.WriteFile(t, path, string(data))
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
