package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

const (
	ollamaTagsTimeout   = 5 * time.Second
	ollamaWarmupTimeout = 5 * time.Minute
	ollamaNumPredict    = 2000
)

// OllamaConfig captures the settings for a local Ollama server.
type OllamaConfig struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
	KeepAlive      time.Duration
}

// Ollama generates text with a local Ollama server.
type Ollama struct {
	cfg        OllamaConfig
	httpClient *http.Client
	tracker    *KeepAlive
	logger     *slog.Logger
}

// OllamaOption customizes the Ollama provider.
type OllamaOption func(*Ollama)

// WithOllamaHTTPClient overrides the HTTP client used for generation.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(o *Ollama) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithKeepAliveTracker shares a tracker between providers, or injects one
// with a fake clock.
func WithKeepAliveTracker(tracker *KeepAlive) OllamaOption {
	return func(o *Ollama) {
		if tracker != nil {
			o.tracker = tracker
		}
	}
}

// WithOllamaLogger sets the logger used for probe progress.
func WithOllamaLogger(logger *slog.Logger) OllamaOption {
	return func(o *Ollama) {
		o.logger = logging.NewComponentLogger(logger, "ollama")
	}
}

// NewOllama constructs an Ollama provider.
func NewOllama(cfg OllamaConfig, opts ...OllamaOption) *Ollama {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	o := &Ollama{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracker == nil {
		o.tracker = NewKeepAlive(cfg.KeepAlive, nil)
	}
	return o
}

// Provider implements Describer.
func (o *Ollama) Provider() string { return "ollama" }

// Model implements Describer.
func (o *Ollama) Model() string { return o.cfg.Model }

type ollamaGenerateRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Generate runs a non-streaming generation.
func (o *Ollama) Generate(ctx context.Context, prompt string) (Completion, error) {
	if err := checkPrompt(prompt); err != nil {
		return Completion{}, err
	}
	resp, err := o.generate(ctx, o.httpClient, ollamaGenerateRequest{
		Model:     o.cfg.Model,
		Prompt:    prompt,
		KeepAlive: o.keepAliveParam(),
		Options: map[string]any{
			"temperature": defaultTemperature,
			"num_predict": ollamaNumPredict,
		},
	})
	if err != nil {
		o.tracker.Forget(o.cfg.Model)
		return Completion{}, fmt.Errorf("ollama generate: %w", err)
	}
	o.tracker.Touch(o.cfg.Model)
	return Completion{
		Text:         strings.TrimSpace(resp.Response),
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}

// Probe checks that the server lists the model and that it can answer a tiny
// prompt. A model used within the keep-alive window is assumed ready.
func (o *Ollama) Probe(ctx context.Context) error {
	if o.tracker.Warm(o.cfg.Model) {
		o.logger.Debug("model probe skipped", logging.String(logging.FieldModel, o.cfg.Model),
			logging.String("reason", "within keep-alive window"))
		return nil
	}
	o.logger.Info("checking model availability",
		logging.String(logging.FieldModel, o.cfg.Model),
		logging.String("endpoint", o.cfg.BaseURL),
	)

	names, err := o.listModels(ctx)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "ollama", "list models",
			fmt.Sprintf("cannot reach Ollama at %s; make sure it is running (ollama serve)", o.cfg.BaseURL), err)
	}
	if !slices.Contains(names, o.cfg.Model) && !slices.Contains(names, o.cfg.Model+":latest") {
		return services.Wrap(services.ErrConfiguration, "ollama", "check model",
			fmt.Sprintf("model %q not found; run: ollama pull %s", o.cfg.Model, o.cfg.Model), nil)
	}

	started := time.Now()
	warmup := &http.Client{Timeout: ollamaWarmupTimeout}
	if _, err := o.generate(ctx, warmup, ollamaGenerateRequest{
		Model:     o.cfg.Model,
		Prompt:    "Ready.",
		KeepAlive: o.keepAliveParam(),
		Options:   map[string]any{"num_predict": 5},
	}); err != nil {
		return services.Wrap(services.ErrUnavailable, "ollama", "warm up model",
			fmt.Sprintf("model %q failed to respond; try a smaller model", o.cfg.Model), err)
	}
	o.tracker.Touch(o.cfg.Model)
	o.logger.Info("model ready",
		logging.String(logging.FieldModel, o.cfg.Model),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (o *Ollama) listModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ollamaTagsTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: summarizeSnippet(string(body))}
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *Ollama) generate(ctx context.Context, client *http.Client, payload ollamaGenerateRequest) (ollamaGenerateResponse, error) {
	var decoded ollamaGenerateResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return decoded, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return decoded, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return decoded, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decoded, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decoded, &httpStatusError{StatusCode: resp.StatusCode, Body: summarizeSnippet(string(body))}
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return decoded, fmt.Errorf("decode response (%s): %w", summarizeSnippet(string(body)), err)
	}
	if decoded.Error != "" {
		return decoded, fmt.Errorf("api error: %s", decoded.Error)
	}
	return decoded, nil
}

func (o *Ollama) keepAliveParam() string {
	if o.cfg.KeepAlive <= 0 {
		return ""
	}
	return o.cfg.KeepAlive.String()
}
