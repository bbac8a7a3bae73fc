// Package dataset holds the transaction and user records the matching engines
// operate on, plus the sources that load them. Records are immutable once
// loaded; engines only ever read them.
package dataset

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("record not found")

// Transaction is one payment row. Amount is in cents; Amount and Date are
// pass-through fields the engines never interpret.
type Transaction struct {
	ID          string
	Description string
	Amount      int64
	Date        string
}

// User is one person record. First/Middle/Last are optional decompositions of
// Name; when unset, scoring tokenizes Name positionally.
type User struct {
	ID     string
	Name   string
	First  string
	Middle string
	Last   string
}

// FullName returns the explicit name parts joined when present, otherwise Name.
func (u *User) FullName() string {
	if u.First == "" && u.Last == "" {
		return u.Name
	}

	parts := make([]string, 0, 3)

	for _, p := range []string{u.First, u.Middle, u.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, " ")
}

// Repository supplies full collections of records for each call. No streaming
// or partial loading contract is required.
type Repository interface {
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context) ([]*Transaction, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

// Set is an in-memory Repository over records loaded at startup. Lookups go
// through an ID index; listings preserve load order.
type Set struct {
	transactions []*Transaction
	users        []*User
	txByID       map[string]*Transaction
}

func NewSet(transactions []*Transaction, users []*User) *Set {
	byID := make(map[string]*Transaction, len(transactions))
	for _, tx := range transactions {
		byID[tx.ID] = tx
	}

	return &Set{
		transactions: transactions,
		users:        users,
		txByID:       byID,
	}
}

func (s *Set) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	tx, ok := s.txByID[id]
	if !ok {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *Set) ListTransactions(_ context.Context) ([]*Transaction, error) {
	return s.transactions, nil
}

func (s *Set) ListUsers(_ context.Context) ([]*User, error) {
	return s.users, nil
}
