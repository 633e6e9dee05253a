package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName lowercases s and strips diacritics so "Ñuñoa" and "nunoa"
// compare equal. Runs of whitespace collapse to one space.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// ContainsWord reports whether needle occurs in haystack on word
// boundaries, after folding both.
func ContainsWord(haystack, needle string) bool {
	h := " " + tokenize(FoldName(haystack)) + " "
	n := tokenize(FoldName(needle))
	if n == "" {
		return false
	}
	return strings.Contains(h, " "+n+" ")
}

func tokenize(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}

func NormalizeAddress(address string) string {
	return FoldName(strings.TrimSpace(address))
}
