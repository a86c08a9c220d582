package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOllama:
	case ProviderOpenRouter, ProviderOpenAI:
		if c.LLM.APIKey == "" {
			env := "OPENROUTER_API_KEY"
			if c.LLM.Provider == ProviderOpenAI {
				env = "OPENAI_API_KEY"
			}
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/clippy/config.toml"
			}
			return fmt.Errorf("llm.api_key is required for provider %q. Set %s env var or edit %s (create with 'clippy config init')", c.LLM.Provider, env, defaultPath)
		}
	default:
		return fmt.Errorf("llm.provider must be one of ollama, openrouter, openai (got %q)", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	switch a.Pipeline {
	case PipelineChapters, PipelineChunks:
	default:
		return fmt.Errorf("analysis.pipeline must be chapters or chunks (got %q)", a.Pipeline)
	}
	switch a.Quality {
	case QualityFast, QualityThorough:
	default:
		return fmt.Errorf("analysis.quality must be fast or thorough (got %q)", a.Quality)
	}
	if a.RetryAttempts > 10 {
		return errors.New("analysis.retry_attempts must be 10 or fewer")
	}
	if a.PhrasePrefixShort > a.PhrasePrefixLong {
		return errors.New("analysis.phrase_prefix_short must not exceed analysis.phrase_prefix_long")
	}
	if a.WordOverlapThreshold > 1 {
		return errors.New("analysis.word_overlap_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateCategories() error {
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("categories[%d].name must be set", i)
		}
		if strings.Contains(cat.Name, ",") {
			return fmt.Errorf("categories[%d].name %q must not contain a comma", i, cat.Name)
		}
		key := strings.ToLower(cat.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("categories: duplicate name %q", cat.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
