package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The LLM defaults to a local model so no credentials are needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PromptsDir = filepath.Join(base, "prompts")
	cfgVal.LLM.Provider = config.ProviderOllama
	cfgVal.LLM.Model = "test-model:7b"
	cfgVal.LLM.BaseURL = "http://127.0.0.1:0"
	cfgVal.Analysis.RetryAttempts = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPipeline selects the analysis pipeline and chunk quality.
func WithPipeline(pipeline, quality string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.Pipeline = pipeline
		if quality != "" {
			b.cfg.Analysis.Quality = quality
		}
	}
}

// WithCategories replaces the configured categories.
func WithCategories(cats ...config.Category) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories = cats
	}
}

// WithRetryAttempts overrides the per-call retry budget.
func WithRetryAttempts(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.RetryAttempts = n
	}
}

// WithModel overrides the configured model name.
func WithModel(model string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.Model = model
	}
}

// Disabled returns a category that is switched off.
func Disabled(name, description string) config.Category {
	off := false
	return config.Category{Name: name, Description: description, Enabled: &off}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
