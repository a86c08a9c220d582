package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// invalidFileChars drops filesystem-unsafe characters outright.
var invalidFileChars = strings.NewReplacer(
	"/", "",
	"\\", "",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// StripInvalidFileChars removes the characters /\:*?"<>| from name.
func StripInvalidFileChars(name string) string {
	return invalidFileChars.Replace(name)
}

// TruncateAtBoundary shortens text to at most max runes, cutting at the last
// space or comma so no word is split. Trailing separators are trimmed.
func TruncateAtBoundary(text string, max int) string {
	if RuneLen(text) <= max {
		return text
	}
	cut := Prefix(text, max)
	if idx := strings.LastIndexAny(cut, " ,"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,-")
}
