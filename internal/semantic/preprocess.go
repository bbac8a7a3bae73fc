package semantic

import (
	"regexp"
	"strings"
)

// Bank exports wrap reference codes in account blocks and "ref" tails. Both
// carry no meaning for an embedding and are stripped before anything else.
var (
	accountBlock = regexp.MustCompile(`(?i)ACC//\S*//CNTR`)
	refTail      = regexp.MustCompile(`(?i)\bref\b\W*[A-Za-z0-9-]*\d[A-Za-z0-9-]*`)
)

// markerWords are structural scaffolding in bank descriptions. They position
// the parties but add nothing semantic themselves.
var markerWords = map[string]struct{}{
	"from": {}, "to": {}, "for": {}, "cc": {},
	"ref": {}, "acc": {}, "cntr": {}, "txn": {}, "no": {},
}

var currencyCodes = map[string]struct{}{
	"eur": {}, "usd": {}, "gbp": {}, "chf": {}, "jpy": {},
}

// Preprocess reduces a description or query to its semantic content: the
// parties, the action, and the purpose. Reference codes, digit-bearing
// tokens, currency markers and structural words are removed so the embedding
// reflects meaning rather than noise. When nothing survives, the trimmed
// original is returned so the text still embeds to something.
func Preprocess(text string) string {
	s := accountBlock.ReplaceAllString(text, " ")
	s = refTail.ReplaceAllString(s, " ")

	var kept []string

	for _, tok := range strings.Fields(s) {
		trimmed := strings.Trim(tok, ".,:;!?()[]'\"#")
		if trimmed == "" || strings.ContainsAny(trimmed, "0123456789") {
			continue
		}

		lower := strings.ToLower(trimmed)
		if _, ok := markerWords[lower]; ok {
			continue
		}

		if _, ok := currencyCodes[lower]; ok {
			continue
		}

		kept = append(kept, trimmed)
	}

	if len(kept) == 0 {
		return strings.TrimSpace(text)
	}

	return strings.Join(kept, " ")
}
