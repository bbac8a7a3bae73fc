// Package embedding produces fixed-size semantic vectors for text, with a
// process-wide content-addressed cache in front of the provider. Vectors for
// byte-identical text are always byte-identical, so the cache is an
// optimization and never an input to scoring.
package embedding

import (
	"context"
	"errors"
)

//go:generate mockgen -source=embedding.go -destination=embedder_mock.go -package=embedding

// ErrModelUnavailable reports that the embedding model could not be reached
// or initialized. Only the semantic path depends on it; lexical matching
// keeps working when it is returned.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Embedder turns text into a vector of fixed dimensionality plus the number
// of tokens the model consumed (diagnostic only, never used in scoring).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, int, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error)
	Dimensions() int
	Model() string
}
