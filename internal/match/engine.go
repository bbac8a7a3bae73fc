// Package match links transaction descriptions to users through the lexical
// path: name extraction followed by weighted fuzzy scoring across the user
// set. It has no model dependency and never fails partially.
package match

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/extract"
)

// DefaultThreshold is the minimum score a result must reach when the caller
// does not supply one.
const DefaultThreshold = 60

var ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")

// Result is one scored (transaction, user) pair at or above the threshold.
type Result struct {
	UserID    string
	Name      string
	Score     int
	Breakdown Breakdown
}

// TransactionMatches carries one transaction's ranked results in MatchAll.
type TransactionMatches struct {
	TransactionID string
	Description   string
	Amount        int64
	Results       []Result
}

type Service struct {
	repo dataset.Repository
}

func NewService(repo dataset.Repository) *Service {
	return &Service{repo: repo}
}

// MatchTransaction ranks users against one transaction's description.
// Returns dataset.ErrNotFound when the transaction id is unknown and
// ErrInvalidThreshold when threshold is outside [0,100].
func (s *Service) MatchTransaction(ctx context.Context, id string, threshold int) ([]Result, error) {
	if threshold < 0 || threshold > 100 {
		return nil, ErrInvalidThreshold
	}

	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction %q: %w", id, err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return MatchDescription(tx.Description, users, threshold), nil
}

// MatchAll ranks users against every transaction, skipping transactions whose
// description is empty. Extraction runs once per transaction and the result is
// reused across all users.
func (s *Service) MatchAll(ctx context.Context, threshold int) ([]TransactionMatches, error) {
	if threshold < 0 || threshold > 100 {
		return nil, ErrInvalidThreshold
	}

	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]TransactionMatches, 0, len(txs))

	for _, tx := range txs {
		if tx.Description == "" {
			continue
		}

		out = append(out, TransactionMatches{
			TransactionID: tx.ID,
			Description:   tx.Description,
			Amount:        tx.Amount,
			Results:       MatchDescription(tx.Description, users, threshold),
		})
	}

	return out, nil
}

// MatchDescription is the pure core: extract one candidate from the
// description, score it against every user, keep scores at or above the
// threshold and rank them. Results are ordered by descending score with ties
// broken by ascending user id, so output is deterministic.
func MatchDescription(description string, users []*dataset.User, threshold int) []Result {
	candidate, ok := extract.Extract(description)
	if !ok {
		return []Result{}
	}

	results := make([]Result, 0, len(users))

	for _, u := range users {
		if u.FullName() == "" {
			continue
		}

		score, breakdown := Score(candidate.Text, u)
		if score == 0 || score < threshold {
			continue
		}

		results = append(results, Result{
			UserID:    u.ID,
			Name:      u.FullName(),
			Score:     score,
			Breakdown: breakdown,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}

		return results[i].UserID < results[j].UserID
	})

	return results
}
