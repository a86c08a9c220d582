package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	StateDir       string `toml:"state_dir"`
	LogDir         string `toml:"log_dir"`
	PromptsDir     string `toml:"prompts_dir"`
	CategoriesFile string `toml:"categories_file"`
}

// LLM contains connection settings for the analysis backend.
type LLM struct {
	// Provider is one of "ollama", "openrouter", or "openai".
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// KeepAliveMinutes is how long a local model stays warm after use.
	KeepAliveMinutes int `toml:"keep_alive_minutes"`
}

// Analysis contains pipeline selection and matching thresholds.
type Analysis struct {
	// Pipeline is "chapters" (two-pass) or "chunks" (single-pass).
	Pipeline string `toml:"pipeline"`
	// Quality is "fast" or "thorough" and only affects the chunk pipeline.
	Quality              string  `toml:"quality"`
	OpenCategories       bool    `toml:"open_categories"`
	RetryAttempts        int     `toml:"retry_attempts"`
	FastChunkMinutes     int     `toml:"fast_chunk_minutes"`
	ThoroughChunkMinutes int     `toml:"thorough_chunk_minutes"`
	MinPhraseLength      int     `toml:"min_phrase_length"`
	PhrasePrefixLong     int     `toml:"phrase_prefix_long"`
	PhrasePrefixShort    int     `toml:"phrase_prefix_short"`
	WordOverlapThreshold float64 `toml:"word_overlap_threshold"`
	DedupWindowSeconds   float64 `toml:"dedup_window_seconds"`
	FlagWindowSeconds    float64 `toml:"flag_window_seconds"`
	PromptCacheMinutes   int     `toml:"prompt_cache_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Category is a caller-defined flag category. A nil Enabled means enabled.
type Category struct {
	Name        string `toml:"name" yaml:"name" json:"name"`
	Description string `toml:"description" yaml:"description" json:"description"`
	Enabled     *bool  `toml:"enabled,omitempty" yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the category participates in analysis.
func (c Category) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Config encapsulates all configuration values for clippy.
//
// Configuration sections:
//   - Paths: state, log, prompt template, and category file locations
//   - LLM: provider, model, credentials, and timeouts
//   - Analysis: pipeline selection and matching thresholds
//   - Logging: log format and level
//   - Categories: inline category definitions
type Config struct {
	Paths      Paths      `toml:"paths"`
	LLM        LLM        `toml:"llm"`
	Analysis   Analysis   `toml:"analysis"`
	Logging    Logging    `toml:"logging"`
	Categories []Category `toml:"categories"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clippy/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that declares [[categories]] replaces the default set.
		cfg.Categories = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Categories) == 0 {
			cfg.Categories = DefaultCategories()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clippy.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the analysis history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// EnabledCategories returns the configured categories that are switched on.
func (c *Config) EnabledCategories() []Category {
	out := make([]Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.IsEnabled() {
			out = append(out, cat)
		}
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
