// Package extract recovers a candidate person name from a free-text payment
// description. An ordered list of patterns is tried strictly by priority; the
// first pattern with a usable capture wins and later patterns are never
// evaluated. A token-run heuristic acts as fallback when no pattern applies.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Candidate is a name substring pulled out of a description. Pattern records
// which rule produced it, for diagnostics only; it never influences scoring.
type Candidate struct {
	Text    string
	Pattern string
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

// patterns are tried in order; priority is the slice position.
var patterns = []pattern{
	{"transfer_from", regexp.MustCompile(`(?i)\b(?:transfer|payment|received|request)\s+from\s+([^,]+?)(?:\s+for\s+\p{L}+|\s*,|\s+ref\b|$)`)},
	{"to_corp_from", regexp.MustCompile(`(?i)\bto\s+\p{L}+\s*,?\s*from\s+([^,]+?)(?:\s+for\b|\s*,|\s+ref\b|$)`)},
	{"from_for", regexp.MustCompile(`(?i)\bfrom\s+([^,]+?)\s*,?\s*for\s+\p{L}+`)},
	{"from_comma", regexp.MustCompile(`(?i)\bfrom\s+(\p{L}+\s*,\s*\p{L}+)(?:\s+for\b|\s*,|$)`)},
	{"ref_label", regexp.MustCompile(`(?i)\bref:\s*([^,]+?)\s*(?:$|,)`)},
	{"cc_name", regexp.MustCompile(`(?i)\bcc\s+([^,]+?)(?:\s+ref\b|\s*,|$)`)},
	{"from_general", regexp.MustCompile(`(?i)\bfrom\s+([^,]+?)(?:\s+ref\b|\s*,|$)`)},
	{"ref_code_tail", regexp.MustCompile(`//CNTR[^\p{L}\d]*(\p{L}[\p{L} ]+)`)},
}

// Pre-cleaning repairs common formatting damage before the patterns run.
var (
	camelBoundary = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	gluedFor      = regexp.MustCompile(`(\p{L})for\s+(\p{Lu})`)
	commaSpacing  = regexp.MustCompile(`\s*,\s*`)

	leadingMarker  = regexp.MustCompile(`(?i)^(?:ref|cc|from|to|debit)\s+`)
	trailingFor    = regexp.MustCompile(`(?i)\s+for(?:\s+\p{L}+)?$`)
	leadingNonWord = regexp.MustCompile(`^[^\p{L}\d]+`)
)

// skipTerms are captures that look like names but are known boilerplate.
var skipTerms = map[string]struct{}{
	"deel": {}, "for deel": {}, "ref": {}, "acc": {}, "from": {}, "to": {}, "cc": {},
}

// stopTokens break a candidate token run in the fallback heuristic.
var stopTokens = map[string]struct{}{
	"for": {}, "from": {}, "to": {}, "ref": {}, "acc": {}, "cntr": {}, "cc": {},
	"deel": {}, "transfer": {}, "payment": {}, "received": {}, "request": {},
	"debit": {}, "credit": {}, "deposit": {}, "withdrawal": {}, "refund": {},
	"eur": {}, "usd": {}, "gbp": {},
}

// Extract returns the best name candidate for a description, or ok=false when
// neither a pattern nor the fallback heuristic finds one. It is a pure
// function of its input.
func Extract(description string) (Candidate, bool) {
	if strings.TrimSpace(description) == "" {
		return Candidate{}, false
	}

	cleaned := preClean(description)

	for _, p := range patterns {
		for _, text := range []string{description, cleaned} {
			m := p.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}

			if name := cleanCandidate(m[1]); name != "" {
				return Candidate{Text: name, Pattern: p.name}, true
			}
		}
	}

	if name := fallbackRun(cleaned); name != "" {
		return Candidate{Text: name, Pattern: "fallback"}, true
	}

	return Candidate{}, false
}

// preClean splits run-together camelCase words, repairs "Nameforcorp" glue and
// normalizes comma spacing so the patterns see predictable separators.
func preClean(s string) string {
	out := gluedFor.ReplaceAllString(s, "$1 for $2")
	out = camelBoundary.ReplaceAllString(out, "$1 $2")
	out = commaSpacing.ReplaceAllString(out, ", ")

	return strings.Join(strings.Fields(out), " ")
}

// cleanCandidate strips markers and boilerplate from a raw capture. An empty
// return means the capture was unusable and the next pattern should run.
func cleanCandidate(raw string) string {
	c := strings.TrimSpace(raw)
	c = leadingNonWord.ReplaceAllString(c, "")
	c = leadingMarker.ReplaceAllString(c, "")
	c = trailingFor.ReplaceAllString(c, "")
	c = strings.Join(strings.Fields(c), " ")

	if len(c) < 3 {
		return ""
	}

	if _, skip := skipTerms[strings.ToLower(c)]; skip {
		return ""
	}

	if strings.Contains(c, "//") || isDigits(c) {
		return ""
	}

	return c
}

// fallbackRun returns the longest contiguous run of purely alphabetic tokens
// once stop tokens, currency markers and code-bearing tokens are discarded.
func fallbackRun(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var best, current []string

	flush := func() {
		if len(current) > len(best) {
			best = current
		}

		current = nil
	}

	for _, f := range fields {
		if !isAlpha(f) {
			flush()
			continue
		}

		if _, stop := stopTokens[strings.ToLower(f)]; stop {
			flush()
			continue
		}

		current = append(current, f)
	}

	flush()

	joined := strings.Join(best, " ")
	if len(joined) < 3 {
		return ""
	}

	return joined
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return s != ""
}
