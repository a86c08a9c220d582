package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

// Client is the generator handed to analysis jobs. It wraps a provider
// and fills in cost estimates. Only local backends get a pre-job
// availability check; hosted backends are checked on explicit request.
type Client struct {
	provider string
	model    string
	gen      Generator
	probe    Prober
	verify   Prober
	logger   *slog.Logger
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (Completion, error) {
	started := time.Now()
	out, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.Debug("generation failed",
			logging.String(logging.FieldProvider, c.provider),
			logging.String(logging.FieldModel, c.model),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return Completion{}, err
	}
	if out.EstimatedCost == 0 {
		out.EstimatedCost = EstimateCost(c.model, out.InputTokens, out.OutputTokens)
	}
	c.logger.Debug("generation complete",
		logging.String(logging.FieldProvider, c.provider),
		logging.String(logging.FieldModel, c.model),
		logging.Int("input_tokens", out.InputTokens),
		logging.Int("output_tokens", out.OutputTokens),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// Probe runs the pre-job availability check. It is a no-op for hosted
// providers, where every check is a billed request.
func (c *Client) Probe(ctx context.Context) error {
	if c.probe == nil {
		return nil
	}
	return c.probe.Probe(ctx)
}

// Verify sends a minimal request to any provider, hosted ones included.
// Used by check-model.
func (c *Client) Verify(ctx context.Context) error {
	switch {
	case c.probe != nil:
		return c.probe.Probe(ctx)
	case c.verify != nil:
		return c.verify.Probe(ctx)
	default:
		return nil
	}
}

// Provider implements Describer.
func (c *Client) Provider() string { return c.provider }

// Model implements Describer.
func (c *Client) Model() string { return c.model }

// Overrides replace the configured provider or model for one job.
type Overrides struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New builds the client for the configured provider. tracker may be nil; pass
// a shared tracker to keep Ollama warm-state across jobs.
func New(cfg *config.Config, over Overrides, tracker *KeepAlive, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new client", "config required", nil)
	}
	llmCfg := cfg.LLM
	if over.Provider != "" && over.Provider != llmCfg.Provider {
		llmCfg = llmCfg.WithProvider(over.Provider)
	}
	if over.Model != "" {
		llmCfg.Model = over.Model
	}
	if over.APIKey != "" {
		llmCfg.APIKey = over.APIKey
	}
	if over.BaseURL != "" {
		llmCfg.BaseURL = over.BaseURL
	}

	logger = logging.NewComponentLogger(logger, "llm")
	client := &Client{provider: llmCfg.Provider, model: llmCfg.Model, logger: logger}

	switch llmCfg.Provider {
	case config.ProviderOllama:
		o := NewOllama(OllamaConfig{
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
			KeepAlive:      time.Duration(llmCfg.KeepAliveMinutes) * time.Minute,
		}, WithKeepAliveTracker(tracker), WithOllamaLogger(logger))
		client.gen, client.probe = o, o
	case config.ProviderOpenRouter:
		if llmCfg.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "llm", "new client", "OPENROUTER_API_KEY is not set", nil)
		}
		r := NewOpenRouter(OpenRouterConfig{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
		client.gen, client.verify = r, r
	case config.ProviderOpenAI:
		if llmCfg.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "llm", "new client", "OPENAI_API_KEY is not set", nil)
		}
		a := NewOpenAI(OpenAIConfig{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
			MaxRetries:     2,
		})
		client.gen, client.verify = a, a
	default:
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new client",
			fmt.Sprintf("unknown provider %q", llmCfg.Provider), nil)
	}
	return client, nil
}
