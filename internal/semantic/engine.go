// Package semantic ranks transactions against a free-text query by embedding
// both and comparing with cosine similarity. It is the only path with a model
// dependency; when the model is unavailable the lexical path keeps working.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/embedding"
)

const (
	// DefaultThreshold is the minimum cosine similarity a result must reach
	// when the caller does not supply one.
	DefaultThreshold = 0.4

	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0 and 1")
	ErrInvalidLimit     = errors.New("limit must be between 1 and 100")
)

// Options tune one search call.
type Options struct {
	Threshold          float64
	Limit              int
	Preprocess         bool
	IncludeDescription bool
}

func DefaultOptions() Options {
	return Options{
		Threshold:          DefaultThreshold,
		Limit:              DefaultLimit,
		Preprocess:         true,
		IncludeDescription: true,
	}
}

// Result is one transaction at or above the similarity threshold.
// Description and Amount are populated unless the caller opted out.
type Result struct {
	TransactionID string
	Similarity    float64
	Tokens        int
	Description   string
	Amount        int64
}

// SearchResult carries the ranked results plus the token count the search
// consumed: the query's tokens and the tokens of every returned item.
type SearchResult struct {
	Results    []Result
	TokensUsed int
}

type Service struct {
	repo     dataset.Repository
	embedder embedding.Embedder
	log      *slog.Logger
}

// NewService wires the search engine to its data and its embedder. A nil
// embedder is allowed; every Search then fails with ErrModelUnavailable while
// the rest of the application runs normally.
func NewService(repo dataset.Repository, embedder embedding.Embedder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{repo: repo, embedder: embedder, log: log}
}

// Search embeds the query and every transaction description, keeps the
// transactions whose cosine similarity reaches the threshold and returns them
// ranked by descending similarity with ties broken by ascending transaction
// id. A whitespace-only query returns an empty result, not an error.
func (s *Service) Search(ctx context.Context, query string, opts Options) (*SearchResult, error) {
	if s.embedder == nil {
		return nil, embedding.ErrModelUnavailable
	}

	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	if opts.Limit < 1 || opts.Limit > MaxLimit {
		return nil, ErrInvalidLimit
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Results: []Result{}}, nil
	}

	queryText := query
	if opts.Preprocess {
		queryText = Preprocess(queryText)
	}

	queryVec, queryTokens, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	items := make([]*dataset.Transaction, 0, len(txs))
	texts := make([]string, 0, len(txs))

	for _, tx := range txs {
		if strings.TrimSpace(tx.Description) == "" {
			continue
		}

		text := tx.Description
		if opts.Preprocess {
			text = Preprocess(text)
		}

		items = append(items, tx)
		texts = append(texts, text)
	}

	vecs, tokens, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// One bad item must not sink the whole search; retry individually
		// and drop only the items that still fail.
		s.log.Warn("batch embedding failed, retrying per item", "error", err)

		items, vecs, tokens = s.embedEach(ctx, items, texts)
	}

	results := make([]Result, 0, len(items))

	for i, tx := range items {
		similarity := roundSimilarity(cosine(queryVec, vecs[i]))
		if similarity < opts.Threshold {
			continue
		}

		r := Result{
			TransactionID: tx.ID,
			Similarity:    similarity,
			Tokens:        tokens[i],
		}

		if opts.IncludeDescription {
			r.Description = tx.Description
			r.Amount = tx.Amount
		}

		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}

		return results[i].TransactionID < results[j].TransactionID
	})

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	used := queryTokens
	for _, r := range results {
		used += r.Tokens
	}

	return &SearchResult{Results: results, TokensUsed: used}, nil
}

// embedEach is the partial-failure path: each text is embedded on its own and
// a failing item is logged and dropped instead of aborting the search.
func (s *Service) embedEach(ctx context.Context, items []*dataset.Transaction, texts []string) ([]*dataset.Transaction, [][]float32, []int) {
	kept := make([]*dataset.Transaction, 0, len(items))
	vecs := make([][]float32, 0, len(items))
	tokens := make([]int, 0, len(items))

	for i, text := range texts {
		vec, n, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.log.Warn("skipping transaction in semantic search",
				"transaction_id", items[i].ID, "error", err)

			continue
		}

		kept = append(kept, items[i])
		vecs = append(vecs, vec)
		tokens = append(tokens, n)
	}

	return kept, vecs, tokens
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// roundSimilarity keeps four decimal places so equal similarities compare
// equal across platforms and the tie-break on transaction id stays stable.
func roundSimilarity(v float64) float64 {
	return math.Round(v*10000) / 10000
}
