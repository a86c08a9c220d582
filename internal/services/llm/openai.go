package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig captures the settings for the hosted OpenAI provider.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	MaxRetries     int
	// HTTPClient replaces the SDK's default client when set.
	HTTPClient *http.Client
}

// OpenAI generates text through the official SDK.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI constructs an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  strings.TrimSpace(cfg.Model),
	}
}

// Provider implements Describer.
func (o *OpenAI) Provider() string { return "openai" }

// Model implements Describer.
func (o *OpenAI) Model() string { return o.model }

// Generate sends prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (Completion, error) {
	if err := checkPrompt(prompt); err != nil {
		return Completion{}, err
	}
	return o.complete(ctx, prompt, defaultTemperature, defaultMaxTokens)
}

// Probe issues a minimal completion to verify the key and model.
func (o *OpenAI) Probe(ctx context.Context) error {
	_, err := o.complete(ctx, "Reply with the word ok.", 0, 5)
	return err
}

func (o *OpenAI) complete(ctx context.Context, prompt string, temperature float64, maxTokens int64) (Completion, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               o.model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai generate: %w", err)
	}
	if resp == nil {
		return Completion{}, errors.New("openai generate: nil response")
	}
	out := Completion{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			out.Text = text
			break
		}
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			out.Text = refusal
			break
		}
	}
	return out, nil
}
