package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/telltaleatheist/clippy-sub006/internal/logging"
)

// File is the YAML layout of a template override.
type File struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Prompt      string `yaml:"prompt"`
}

// Store resolves templates, preferring overrides found in a directory. Lookups
// are cached for the configured TTL so edits to override files are picked up
// without a restart.
type Store struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	cache  *cache.Cache
	logger *slog.Logger
}

type cachedTemplate struct {
	text   string
	loaded time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock sets the time source used to expire cached templates.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a store reading overrides from dir. An empty dir serves
// built-in templates only.
func NewStore(dir string, ttl time.Duration, logger *slog.Logger, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &Store{
		dir:    strings.TrimSpace(dir),
		ttl:    ttl,
		now:    time.Now,
		cache:  cache.New(ttl, 2*ttl),
		logger: logging.NewComponentLogger(logger, "prompts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Template returns the template text for name.
func (s *Store) Template(name string) (string, error) {
	if s == nil {
		if tpl, ok := Default(name); ok {
			return tpl, nil
		}
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	now := s.now()
	if cached, ok := s.cache.Get(name); ok {
		entry := cached.(cachedTemplate)
		if now.Before(entry.loaded.Add(s.ttl)) {
			return entry.text, nil
		}
	}

	tpl, ok := Default(name)
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	if override, found := s.loadOverride(name); found {
		tpl = override
	}
	s.cache.Set(name, cachedTemplate{text: tpl, loaded: now}, cache.DefaultExpiration)
	return tpl, nil
}

// Invalidate drops every cached template.
func (s *Store) Invalidate() {
	if s != nil {
		s.cache.Flush()
	}
}

func (s *Store) loadOverride(name string) (string, bool) {
	if s.dir == "" {
		return "", false
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(s.dir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.WarnWithContext(s.logger, "prompt override unreadable", "prompt_override_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "built-in template used"),
				)
			}
			continue
		}
		var file File
		if err := yaml.Unmarshal(data, &file); err != nil {
			logging.WarnWithContext(s.logger, "prompt override invalid", "prompt_override_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "built-in template used"),
			)
			return "", false
		}
		if strings.TrimSpace(file.Prompt) == "" {
			return "", false
		}
		s.logger.Debug("prompt override loaded", logging.String("template", name), logging.String("path", path))
		return file.Prompt, true
	}
	return "", false
}
