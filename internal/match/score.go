package match

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/textnorm"
)

// Scoring weights, in percent. They must sum to 100; surname carries the most
// weight because it is the strongest discriminator between users.
const (
	WeightOverall  = 20
	WeightFirst    = 25
	WeightMiddle   = 3
	WeightLast     = 30
	WeightCoverage = 20
)

const (
	// coverageThreshold is the per-part similarity above which a user name
	// part counts as found anywhere in the candidate.
	coverageThreshold = 0.8

	// similarityFloor gates the positional components: token pairs below it
	// are treated as noise and contribute nothing.
	similarityFloor = 0.5

	// minSplitLen is the shortest run-together candidate worth splitting.
	minSplitLen = 6
)

// Breakdown reports each scoring component in [0,1] before weighting.
type Breakdown struct {
	Overall  float64
	First    float64
	Middle   float64
	Last     float64
	Coverage float64
}

// Score computes the weighted similarity between a candidate name and a user,
// returning a total in [0,100] and the per-component breakdown. A candidate
// that normalizes to the user's full name scores exactly 100.
func Score(candidate string, user *dataset.User) (int, Breakdown) {
	userTokens := userNameTokens(user)
	if len(userTokens) == 0 || strings.TrimSpace(candidate) == "" {
		return 0, Breakdown{}
	}

	userJoined := strings.Join(userTokens, " ")

	var (
		best          float64
		bestBreakdown Breakdown
	)

	for _, variant := range candidateVariants(candidate) {
		if strings.Join(variant, " ") == userJoined {
			return 100, Breakdown{Overall: 1, First: 1, Middle: 1, Last: 1, Coverage: 1}
		}

		total, bd := scoreTokens(variant, userTokens)
		if total > best {
			best = total
			bestBreakdown = bd
		}
	}

	total := int(math.Round(math.Min(100, math.Max(0, best))))

	return total, bestBreakdown
}

// candidateVariants produces the token sequences scored against the user:
// the candidate as written, its reversal when it has exactly two parts, and
// the plausible splits of a run-together candidate.
func candidateVariants(candidate string) [][]string {
	direct := textnorm.Tokens(candidate)

	variants := [][]string{direct}

	if len(direct) == 2 {
		variants = append(variants, []string{direct[1], direct[0]})
	}

	if len(direct) == 1 && utf8.RuneCountInString(direct[0]) >= minSplitLen {
		variants = append(variants, runTogetherSplits(candidate, direct[0])...)
	}

	return variants
}

// runTogetherSplits splits a separator-free candidate at capitalization
// boundaries and, failing that, at every interior rune position, so
// "JohnSmith" and "johnsmith" both get a chance to score as "john smith".
func runTogetherSplits(raw, normalized string) [][]string {
	var splits [][]string

	if camel := textnorm.SplitCamel(strings.TrimSpace(raw)); len(camel) >= 2 {
		tokens := textnorm.Tokens(strings.Join(camel, " "))
		if len(tokens) >= 2 {
			splits = append(splits, tokens)
		}
	}

	// Split on rune boundaries; non-Latin tokens pass through normalization
	// unchanged and must never be cut mid-rune.
	runes := []rune(normalized)

	for i := 2; i <= len(runes)-2; i++ {
		splits = append(splits, []string{string(runes[:i]), string(runes[i:])})
	}

	return splits
}

func scoreTokens(cand, user []string) (float64, Breakdown) {
	if len(cand) == 0 {
		return 0, Breakdown{}
	}

	bd := Breakdown{
		Overall: gated(overallSimilarity(cand, user)),
		First:   gated(tokenSimilarity(cand[0], user[0])),
		Last:    gated(tokenSimilarity(cand[len(cand)-1], user[len(user)-1])),
	}

	if len(cand) > 2 && len(user) > 2 {
		bd.Middle = gated(bestPairSimilarity(cand[1:len(cand)-1], user[1:len(user)-1]))
	}

	matched := 0

	for _, up := range user {
		for _, cp := range cand {
			if tokenSimilarity(up, cp) >= coverageThreshold {
				matched++
				break
			}
		}
	}

	bd.Coverage = float64(matched) / float64(len(user))

	total := bd.Overall*WeightOverall +
		bd.First*WeightFirst +
		bd.Middle*WeightMiddle +
		bd.Last*WeightLast +
		bd.Coverage*WeightCoverage

	// A single bare token against a multi-part name is weak evidence; a
	// candidate covering every part is strong evidence but never a perfect
	// match on its own.
	if len(cand) == 1 && len(user) > 1 {
		total *= 0.85
	}

	if matched == len(user) && len(user) > 1 {
		total = math.Min(total*1.02, 95)
	}

	return total, bd
}

// overallSimilarity is the better of a token-set and a token-sort comparison,
// so shared tokens count regardless of order or duplication.
func overallSimilarity(a, b []string) float64 {
	return math.Max(tokenSetRatio(a, b), tokenSortRatio(a, b))
}

func tokenSortRatio(a, b []string) float64 {
	return tokenSimilarity(sortedJoin(a), sortedJoin(b))
}

// tokenSetRatio compares the shared-token core of both sides against each
// full side, so a candidate that is a subset of the user name (or vice versa)
// still rates highly.
func tokenSetRatio(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	var inter, restA, restB []string

	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter = append(inter, tok)
		} else {
			restA = append(restA, tok)
		}
	}

	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			restB = append(restB, tok)
		}
	}

	sort.Strings(inter)
	sort.Strings(restA)
	sort.Strings(restB)

	core := strings.Join(inter, " ")
	full1 := strings.TrimSpace(core + " " + strings.Join(restA, " "))
	full2 := strings.TrimSpace(core + " " + strings.Join(restB, " "))

	best := tokenSimilarity(full1, full2)

	if core != "" {
		best = math.Max(best, tokenSimilarity(core, full1))
		best = math.Max(best, tokenSimilarity(core, full2))
	}

	return best
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}

	if a == "" || b == "" {
		return 0
	}

	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}

	return float64(sim)
}

func bestPairSimilarity(a, b []string) float64 {
	var best float64

	for _, x := range a {
		for _, y := range b {
			best = math.Max(best, tokenSimilarity(x, y))
		}
	}

	return best
}

func gated(sim float64) float64 {
	if sim < similarityFloor {
		return 0
	}

	return sim
}

func userNameTokens(user *dataset.User) []string {
	if user.First != "" || user.Last != "" {
		return textnorm.Tokens(user.FullName())
	}

	return textnorm.Tokens(user.Name)
}

func sortedJoin(tokens []string) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)

	return strings.Join(sorted, " ")
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	return set
}
