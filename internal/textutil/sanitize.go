package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// unsafeRune maps characters that are illegal in Windows or POSIX file
// names: separators and ':' or '*' become '-', the rest are dropped (-1).
func unsafeRune(r rune) rune {
	switch r {
	case '/', '\\', ':', '*':
		return '-'
	case '?', '"', '<', '>', '|':
		return -1
	}
	if r < ' ' {
		return -1
	}
	return r
}

// SanitizeFileName makes name safe to use as a single path segment on
// every platform the library is mounted from.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(strings.Map(unsafeRune, strings.TrimSpace(name)))
}

// FolderName turns a free-form hierarchy label into a library folder
// segment: "hero props" becomes "Hero_Props" and "FX/sims" becomes
// "FX-Sims". Existing capitals survive so acronyms stay intact.
func FolderName(label string) string {
	words := strings.Fields(titleCaser.String(SanitizeFileName(label)))
	return strings.Trim(strings.Join(words, "_"), ".")
}
