package prompts

import (
	"sort"
	"strings"
)

// Render substitutes every {key} token in tpl with its value. Keys are matched
// literally; unknown tokens and other braces are left untouched.
func Render(tpl string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// Truncate cuts text to at most max runes. A non-positive max leaves text as is.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text, false
	}
	return string(runes[:max]), true
}
