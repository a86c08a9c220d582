package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes, lowercases, and trims text.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	composed := norm.NFC.String(text)
	return strings.TrimSpace(cases.Lower(language.Und).String(composed))
}

// CollapseSpace replaces every run of whitespace with a single space and trims
// the result.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Prefix returns at most n runes from the start of text.
func Prefix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// RuneLen returns the number of runes in text.
func RuneLen(text string) int {
	return len([]rune(text))
}

// TitleCase capitalizes each word, used for people names.
func TitleCase(text string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(text))
}

// Words splits normalized text into words with surrounding punctuation removed.
func Words(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Tokenize returns the words of text longer than minRunes runes.
func Tokenize(text string, minRunes int) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if RuneLen(w) > minRunes {
			out = append(out, w)
		}
	}
	return out
}
