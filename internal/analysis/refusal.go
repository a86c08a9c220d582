package analysis

import (
	"regexp"
	"strings"
)

const refusalScanChars = 200

// refusalPhrases are matched anywhere in the opening of a reply.
var refusalPhrases = []string{
	"i cannot",
	"i can't",
	"i can not",
	"i'm not able to",
	"i am not able to",
	"i'm unable to",
	"i am unable to",
	"i won't",
	"i will not",
	"i'm sorry",
	"i apologize",
	"as an ai",
	"i must decline",
	"not comfortable",
	"against my guidelines",
	"cannot assist",
	"cannot help with",
}

// IsRefusal reports whether the opening of text reads as a refusal.
func IsRefusal(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if runes := []rune(head); len(runes) > refusalScanChars {
		head = string(runes[:refusalScanChars])
	}
	head = strings.ReplaceAll(head, "’", "'")
	for _, phrase := range refusalPhrases {
		if strings.Contains(head, phrase) {
			return true
		}
	}
	return false
}

var descriptionRefusal = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^i (?:cannot|can't|can not|won't|will not|am unable|am not able|must decline)`),
	regexp.MustCompile(`(?i)^i'm (?:sorry|unable|not able)`),
	regexp.MustCompile(`(?i)^(?:sorry|unfortunately|apologies)\b`),
	regexp.MustCompile(`(?i)^i apologi[sz]e`),
	regexp.MustCompile(`(?i)^as an (?:ai|language model)`),
}

// isDescriptionRefusal reports whether a generated overview is an apology
// rather than a description.
func isDescriptionRefusal(text string) bool {
	text = strings.ReplaceAll(strings.TrimSpace(text), "’", "'")
	for _, re := range descriptionRefusal {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
