package response

import (
	"strings"

	"github.com/tidwall/gjson"
)

// StripCodeFences removes triple-backtick marker lines, keeping the lines
// between them.
func StripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ExtractObject returns the first brace-balanced JSON object in text that
// parses and has key at its top level. When no balanced span qualifies it
// tries the greedy span from the first '{' to the last '}'.
func ExtractObject(text, key string) (string, bool) {
	cleaned := StripCodeFences(text)
	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		end := matchBrace(cleaned, start)
		if end > start {
			span := cleaned[start : end+1]
			if hasKey(span, key) {
				return span, true
			}
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first := strings.IndexByte(cleaned, '{')
	last := strings.LastIndexByte(cleaned, '}')
	if first >= 0 && last > first {
		span := cleaned[first : last+1]
		if hasKey(span, key) {
			return span, true
		}
	}
	return "", false
}

func hasKey(span, key string) bool {
	return gjson.Valid(span) && gjson.Get(span, key).Exists()
}

// matchBrace returns the index of the '}' closing the '{' at open, skipping
// braces inside JSON strings, or -1 when unbalanced.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// field returns a trimmed string value and whether it is present and non-blank.
func field(obj gjson.Result, key string) (string, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return "", false
	}
	s := strings.TrimSpace(v.String())
	return s, s != ""
}

func snippet(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
