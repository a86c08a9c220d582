package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeAnalysis()
	c.normalizeCategories()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.PromptsDir, err = expandPath(strings.TrimSpace(c.Paths.PromptsDir)); err != nil {
		return fmt.Errorf("paths.prompts_dir: %w", err)
	}
	if c.Paths.CategoriesFile, err = expandPath(strings.TrimSpace(c.Paths.CategoriesFile)); err != nil {
		return fmt.Errorf("paths.categories_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.normalize()
}

// WithProvider returns a copy of l switched to provider, with model, key, and
// endpoint reset to that provider's defaults and environment fallbacks.
func (l LLM) WithProvider(provider string) LLM {
	l.Provider = provider
	l.Model = ""
	l.APIKey = ""
	l.BaseURL = ""
	l.normalize()
	return l
}

func (l *LLM) normalize() {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	if l.Provider == "" {
		l.Provider = defaultProvider
	}
	l.Model = strings.TrimSpace(l.Model)
	if l.Model == "" {
		l.Model = defaultModelFor(l.Provider)
	}
	l.APIKey = strings.TrimSpace(l.APIKey)
	if l.APIKey == "" {
		switch l.Provider {
		case ProviderOpenRouter:
			l.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
		case ProviderOpenAI:
			l.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		}
	}
	l.BaseURL = strings.TrimSpace(l.BaseURL)
	if l.BaseURL == "" && l.Provider == ProviderOllama {
		if host := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); host != "" {
			if !strings.Contains(host, "://") {
				host = "http://" + host
			}
			l.BaseURL = host
		}
	}
	if l.BaseURL == "" {
		l.BaseURL = defaultBaseURLFor(l.Provider)
	}
	l.BaseURL = strings.TrimRight(l.BaseURL, "/")
	l.Referer = strings.TrimSpace(l.Referer)
	l.Title = strings.TrimSpace(l.Title)
	if l.TimeoutSeconds <= 0 {
		l.TimeoutSeconds = defaultTimeoutSeconds
	}
	if l.KeepAliveMinutes <= 0 {
		l.KeepAliveMinutes = defaultKeepAliveMinutes
	}
}

func (c *Config) normalizeAnalysis() {
	a := &c.Analysis
	a.Pipeline = strings.ToLower(strings.TrimSpace(a.Pipeline))
	if a.Pipeline == "" {
		a.Pipeline = defaultPipeline
	}
	a.Quality = strings.ToLower(strings.TrimSpace(a.Quality))
	if a.Quality == "" {
		a.Quality = defaultQuality
	}
	if a.RetryAttempts <= 0 {
		a.RetryAttempts = defaultRetryAttempts
	}
	if a.FastChunkMinutes <= 0 {
		a.FastChunkMinutes = defaultFastChunkMinutes
	}
	if a.ThoroughChunkMinutes <= 0 {
		a.ThoroughChunkMinutes = defaultThoroughChunkMinutes
	}
	if a.MinPhraseLength <= 0 {
		a.MinPhraseLength = defaultMinPhraseLength
	}
	if a.PhrasePrefixLong <= 0 {
		a.PhrasePrefixLong = defaultPhrasePrefixLong
	}
	if a.PhrasePrefixShort <= 0 {
		a.PhrasePrefixShort = defaultPhrasePrefixShort
	}
	if a.WordOverlapThreshold <= 0 {
		a.WordOverlapThreshold = defaultWordOverlapThreshold
	}
	if a.DedupWindowSeconds <= 0 {
		a.DedupWindowSeconds = defaultDedupWindowSeconds
	}
	if a.FlagWindowSeconds <= 0 {
		a.FlagWindowSeconds = defaultFlagWindowSeconds
	}
	if a.PromptCacheMinutes <= 0 {
		a.PromptCacheMinutes = defaultPromptCacheMinutes
	}
}

func (c *Config) normalizeCategories() {
	for i := range c.Categories {
		c.Categories[i].Name = strings.TrimSpace(c.Categories[i].Name)
		c.Categories[i].Description = strings.TrimSpace(c.Categories[i].Description)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
