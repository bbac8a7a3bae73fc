// Package textnorm canonicalizes free text so that name candidates and user
// names become comparable: accents are folded to ASCII, case is lowered,
// punctuation turns into word separators and whitespace is collapsed.
//
// Non-Latin scripts pass through unchanged; they simply match with reduced
// quality. That is a documented limitation, not a bug.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and drops the combining marks, so that
// "é" becomes "e" and "ü" becomes "u".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes text: accent folding, lowercasing, punctuation
// replaced by spaces, whitespace collapsed, result trimmed.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder

	b.Grow(len(folded))

	pendingSpace := false

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}

			pendingSpace = false

			b.WriteRune(unicode.ToLower(r))

			continue
		}

		// Punctuation and whitespace both act as word separators.
		pendingSpace = true
	}

	return b.String()
}

// Tokens normalizes text and splits it into name parts. Single-rune tokens
// (initials, stray separators) are discarded because they carry too little
// signal for similarity scoring.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))

	parts := fields[:0]

	for _, f := range fields {
		if len([]rune(f)) > 1 {
			parts = append(parts, f)
		}
	}

	return parts
}

// SplitCamel breaks a run-together name at lower-to-upper case boundaries:
// "JaneDoe" -> ["Jane", "Doe"]. Returns nil when no boundary exists.
func SplitCamel(s string) []string {
	var (
		parts []string
		start int
	)

	runes := []rune(s)

	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}

	if start == 0 {
		return nil
	}

	return append(parts, string(runes[start:]))
}
