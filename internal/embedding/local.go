package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	// LocalModel identifies the built-in hashed-feature model in cache keys.
	LocalModel = "hashed-ngram-v1"

	// LocalDimensions matches the dimensionality of the MiniLM family so the
	// local provider is a drop-in stand-in for a served model.
	LocalDimensions = 384
)

// Local is a deterministic embedder that needs no external model process.
// It hashes word tokens, word bigrams and character trigrams into a fixed
// vector with signed buckets, then L2-normalizes. Texts sharing vocabulary
// and morphology land close together; it is a pragmatic stand-in for a
// sentence-transformer, not a replacement.
type Local struct {
	dim int
}

func NewLocal() *Local {
	return &Local{dim: LocalDimensions}
}

func (l *Local) Dimensions() int { return l.dim }

func (l *Local) Model() string { return LocalModel }

func (l *Local) Embed(_ context.Context, text string) ([]float32, int, error) {
	tokens := localTokens(text)

	vec := make([]float32, l.dim)

	for _, tok := range tokens {
		l.add(vec, tok, 1.0)

		// Character trigrams give typo and morphology tolerance.
		runes := []rune(tok)
		for i := 0; i+3 <= len(runes); i++ {
			l.add(vec, "#"+string(runes[i:i+3]), 0.4)
		}
	}

	for i := 0; i+1 < len(tokens); i++ {
		l.add(vec, tokens[i]+"_"+tokens[i+1], 0.6)
	}

	normalize(vec)

	return vec, len(tokens), nil
}

func (l *Local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	vecs := make([][]float32, len(texts))
	tokens := make([]int, len(texts))

	for i, t := range texts {
		vec, n, err := l.Embed(ctx, t)
		if err != nil {
			return nil, nil, err
		}

		vecs[i] = vec
		tokens[i] = n
	}

	return vecs, tokens, nil
}

// add hashes a feature into a signed bucket. The sign bit keeps unrelated
// features from only ever accumulating, which would bias all vectors toward
// each other.
func (l *Local) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))

	sum := h.Sum64()

	idx := int(sum % uint64(l.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}

	vec[idx] += weight
}

// normalize scales the vector to unit length. A vector with no features gets
// a fixed unit component so embeddings are never all-zero.
func normalize(vec []float32) {
	var sum float64

	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	if sum == 0 {
		vec[0] = 1

		return
	}

	inv := float32(1 / math.Sqrt(sum))

	for i := range vec {
		vec[i] *= inv
	}
}

func localTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
