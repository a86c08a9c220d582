package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func openAIPayload(content, refusal string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
					"refusal": refusal,
				},
			},
		},
		"usage": map[string]any{"prompt_tokens": 200, "completion_tokens": 40, "total_tokens": 240},
	}
}

type openAIRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	MaxCompletionTokens int `json:"max_completion_tokens"`
}

func newOpenAIServer(t *testing.T, payload map[string]any, seen *openAIRequest) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestOpenAIGenerate(t *testing.T) {
	var req openAIRequest
	server, calls := newOpenAIServer(t, openAIPayload(`{"sections": []}`, ""), &req)

	client := NewOpenAI(OpenAIConfig{
		APIKey:     "key",
		BaseURL:    server.URL + "/",
		Model:      "gpt-4o-mini",
		HTTPClient: server.Client(),
	})
	out, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out.Text != `{"sections": []}` {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.InputTokens != 200 || out.OutputTokens != 40 {
		t.Fatalf("unexpected usage: %+v", out)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one request, got %d", *calls)
	}
	if req.Model != "gpt-4o-mini" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !strings.Contains(string(req.Messages[0].Content), "hello") {
		t.Fatalf("prompt not sent: %s", req.Messages[0].Content)
	}
	if req.MaxCompletionTokens != defaultMaxTokens {
		t.Fatalf("expected max tokens %d, got %d", defaultMaxTokens, req.MaxCompletionTokens)
	}
}

func TestOpenAIReturnsRefusalText(t *testing.T) {
	server, _ := newOpenAIServer(t, openAIPayload("", "I'm sorry, but I can't help with that."), nil)

	client := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: server.URL + "/", Model: "gpt-4o-mini", HTTPClient: server.Client()})
	out, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out.Text != "I'm sorry, but I can't help with that." {
		t.Fatalf("refusal should surface as reply text, got %q", out.Text)
	}
	if out.Empty() {
		t.Fatal("refusal reply should not count as empty")
	}
}

func TestOpenAIEmptyContentIsNotAnError(t *testing.T) {
	server, _ := newOpenAIServer(t, openAIPayload("  ", ""), nil)

	client := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: server.URL + "/", Model: "gpt-4o-mini", HTTPClient: server.Client()})
	out, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !out.Empty() || out.InputTokens != 200 {
		t.Fatalf("expected empty completion with usage, got %+v", out)
	}
}

func TestOpenAIRequiresPrompt(t *testing.T) {
	client := NewOpenAI(OpenAIConfig{APIKey: "key", Model: "gpt-4o-mini"})
	if _, err := client.Generate(context.Background(), "  "); err != ErrEmptyPrompt {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}
