package coder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents decomposes characters and drops combining marks, so accented
// letters survive the ASCII filter below ("café" -> "cafe").
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize cleans raw response text into a Value. Empty or
// whitespace-only input yields the Missing sentinel; everything else is
// lowercased, stripped of accents and of characters outside [a-z0-9 ],
// and whitespace-collapsed. Text that cleans down to nothing is Missing.
// Normalize is idempotent over its own output.
func Normalize(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Missing
	}
	folded, _, err := transform.String(foldAccents, raw)
	if err != nil {
		folded = raw
	}
	lowered := strings.ToLower(folded)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if cleaned == "" {
		return Missing
	}
	return NewValue(cleaned)
}
