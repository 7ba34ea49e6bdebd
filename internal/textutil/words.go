package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokenSplitPattern matches runs of characters that separate words.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

var lowerCaser = cases.Lower(language.Und)

// Tokenize splits text into lowercase words at least minLen runes long.
// Pure digit runs are dropped.
func Tokenize(text string, minLen int) []string {
	raw := tokenSplitPattern.Split(lowerCaser.String(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < minLen {
			continue
		}
		if strings.Trim(token, "0123456789") == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// SplitList splits a user-supplied list on commas and whitespace, dropping
// empty entries.
func SplitList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// Lower lower-cases text with Unicode-aware rules.
func Lower(value string) string {
	return lowerCaser.String(value)
}
