package categories

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
)

// Routine is the catch-all category used for unremarkable content.
const Routine = "routine"

// Category is an enabled category name with its prompt description.
type Category struct {
	Name        string
	Description string
}

// Enabled filters configured categories down to the enabled, named ones.
func Enabled(in []config.Category) []Category {
	out := make([]Category, 0, len(in))
	for _, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" || !c.IsEnabled() {
			continue
		}
		out = append(out, Category{Name: name, Description: strings.TrimSpace(c.Description)})
	}
	return out
}

// fileFormat is the YAML layout of a categories file. Both a top-level list
// and a "categories:" mapping are accepted.
type fileFormat struct {
	Categories []config.Category `yaml:"categories"`
}

// LoadFile reads category definitions from a YAML file.
func LoadFile(path string) ([]config.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var list []config.Category
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}
	var wrapped fileFormat
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	return wrapped.Categories, nil
}

// Resolve returns the configured categories, enabled or not: the YAML file
// when configured, otherwise the inline [[categories]] tables.
func Resolve(cfg *config.Config) ([]config.Category, error) {
	if cfg == nil {
		return nil, nil
	}
	if path := strings.TrimSpace(cfg.Paths.CategoriesFile); path != "" {
		return LoadFile(path)
	}
	return cfg.Categories, nil
}

// Validator checks claimed category names.
type Validator struct {
	open      bool
	canonical map[string]string
	logger    *slog.Logger
}

// NewValidator builds a validator over the enabled categories. When open is
// true any non-empty category is accepted.
func NewValidator(enabled []Category, open bool, logger *slog.Logger) *Validator {
	canonical := make(map[string]string, len(enabled))
	for _, c := range enabled {
		canonical[strings.ToLower(c.Name)] = c.Name
	}
	return &Validator{
		open:      open,
		canonical: canonical,
		logger:    logging.NewComponentLogger(logger, "categories"),
	}
}

// Open reports whether novel categories are accepted.
func (v *Validator) Open() bool { return v.open }

// Canonical returns the accepted spelling of name and whether it is allowed.
func (v *Validator) Canonical(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	if stored, ok := v.canonical[strings.ToLower(trimmed)]; ok {
		return stored, true
	}
	if v.open {
		return trimmed, true
	}
	v.logger.Debug("category rejected",
		logging.String("category", trimmed),
		logging.String(logging.FieldDecisionType, "category_validation"),
	)
	return "", false
}

// Filter keeps the items whose category validates, rewriting the category to
// its canonical spelling. get and set read and write an item's category.
func Filter[T any](v *Validator, items []T, get func(T) string, set func(*T, string)) []T {
	out := make([]T, 0, len(items))
	dropped := 0
	for _, item := range items {
		name, ok := v.Canonical(get(item))
		if !ok {
			dropped++
			continue
		}
		set(&item, name)
		out = append(out, item)
	}
	if dropped > 0 {
		logging.WarnWithContext(v.logger, "dropped items with unknown categories", "category_rejected",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(out)),
			logging.String(logging.FieldErrorHint, "add the category to the config or enable open_categories"),
		)
	}
	return out
}

// Dedupe keeps the first item of every run whose start times fall within
// window seconds of an already kept item, regardless of category.
func Dedupe[T any](items []T, window float64, start func(T) float64, logger *slog.Logger) []T {
	logger = logging.NewComponentLogger(logger, "categories")
	out := make([]T, 0, len(items))
	var kept []float64
	for _, item := range items {
		ts := start(item)
		duplicate := false
		for _, k := range kept {
			if diff := ts - k; diff < window && diff > -window {
				duplicate = true
				break
			}
		}
		if duplicate {
			logger.Info("duplicate flag dropped",
				logging.Float64("start_seconds", ts),
				logging.Float64("window_seconds", window),
				logging.String(logging.FieldDecisionType, "flag_dedup"),
			)
			continue
		}
		kept = append(kept, ts)
		out = append(out, item)
	}
	return out
}
