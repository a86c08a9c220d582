package analysis

import (
	"regexp"
	"strings"

	"github.com/telltaleatheist/clippy-sub006/internal/textutil"
)

const (
	minTitleLength = 10
	maxTitleLength = 200
)

var (
	titleExtension  = regexp.MustCompile(`\.[A-Za-z0-9]{2,4}$`)
	titleDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[\s_\-:]*`)
	titleMeta       = regexp.MustCompile(`^(?:(?:based on|here is|here's|here are|i suggest|i would suggest|i'd suggest|i recommend|suggested (?:title|filename)|the (?:suggested )?title (?:is|would be)|sure|certainly|okay)\b|title:|filename:)`)
	titleQuotes     = strings.NewReplacer("'", "", "‘", "", "’", "", "“", "", "”", "", "`", "")
)

// CleanTitle turns a raw suggested-title reply into a lowercase filename
// stem. The bool is false when the reply is unusable.
func CleanTitle(raw string) (string, bool) {
	title := firstLine(raw)
	title = strings.Trim(title, " \t\"'`“”‘’")
	if title == "" {
		return "", false
	}
	if strings.Contains(title, ".") {
		title = titleExtension.ReplaceAllString(title, "")
	}
	title = titleDatePrefix.ReplaceAllString(strings.TrimSpace(title), "")
	title = strings.ToLower(title)
	if titleMeta.MatchString(title) {
		return "", false
	}
	title = textutil.StripInvalidFileChars(title)
	title = titleQuotes.Replace(title)
	title = strings.ReplaceAll(title, ".", "")
	title = textutil.CollapseSpace(title)
	title = strings.Trim(title, " -_,")

	if textutil.RuneLen(title) < minTitleLength {
		return "", false
	}
	if textutil.RuneLen(title) > maxTitleLength {
		title = textutil.TruncateAtBoundary(title, maxTitleLength)
	}
	return title, true
}

func firstLine(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
