package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
)

// Rule answers prompts that contain Match. Replies are consumed in order; the
// last one repeats once the list is exhausted.
type Rule struct {
	Match   string
	Replies []string
	Err     error
}

// ScriptedGenerator is a deterministic llm.Generator for pipeline tests.
// Prompts that match no rule receive Fallback.
type ScriptedGenerator struct {
	mu       sync.Mutex
	rules    []*Rule
	used     map[*Rule]int
	Fallback string
	// Tokens is reported as both input and output usage for every call.
	Tokens int
	// OnCall runs before each reply, after the prompt is recorded.
	OnCall  func(n int, prompt string)
	prompts []string
}

// NewScriptedGenerator returns a generator with the provided rules, checked
// in order.
func NewScriptedGenerator(rules ...Rule) *ScriptedGenerator {
	g := &ScriptedGenerator{used: make(map[*Rule]int)}
	for i := range rules {
		r := rules[i]
		g.rules = append(g.rules, &r)
	}
	return g
}

// Generate implements llm.Generator.
func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (llm.Completion, error) {
	if err := ctx.Err(); err != nil {
		return llm.Completion{}, err
	}
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	n := len(g.prompts)
	hook := g.OnCall
	reply, err := g.Fallback, error(nil)
	for _, r := range g.rules {
		if !strings.Contains(prompt, r.Match) {
			continue
		}
		err = r.Err
		if len(r.Replies) > 0 {
			idx := g.used[r]
			if idx >= len(r.Replies) {
				idx = len(r.Replies) - 1
			}
			reply = r.Replies[idx]
		}
		g.used[r]++
		break
	}
	tokens := g.Tokens
	g.mu.Unlock()

	if hook != nil {
		hook(n, prompt)
	}
	if err != nil {
		return llm.Completion{}, err
	}
	return llm.Completion{Text: reply, InputTokens: tokens, OutputTokens: tokens}, nil
}

// Prompts returns a copy of every prompt received.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Calls returns the number of prompts received.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// CountMatching returns how many prompts contained substr.
func (g *ScriptedGenerator) CountMatching(substr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	count := 0
	for _, p := range g.prompts {
		if strings.Contains(p, substr) {
			count++
		}
	}
	return count
}
