// Package store implements dataset.Repository over Postgres for deployments
// where the records live in a database instead of CSV exports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpereiran/txlink/internal/dataset"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads a transaction row from the scanner.
// Expected column order: id, description, amount, date
func scanTransaction(s scanner) (*dataset.Transaction, error) {
	var tx dataset.Transaction

	var desc, date sql.NullString

	var amount sql.NullInt64

	if err := s.Scan(&tx.ID, &desc, &amount, &date); err != nil {
		return nil, err
	}

	tx.Description = desc.String
	tx.Amount = amount.Int64
	tx.Date = date.String

	return &tx, nil
}

const selectTransactionColumns = `id, description, amount, date`

func (s *Store) GetTransaction(ctx context.Context, id string) (*dataset.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dataset.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]*dataset.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*dataset.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*dataset.User, error) {
	query := `SELECT id, name, first_name, middle_name, last_name
		FROM users
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*dataset.User

	for rows.Next() {
		var u dataset.User

		var name, first, middle, last sql.NullString

		if err := rows.Scan(&u.ID, &name, &first, &middle, &last); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		u.Name = name.String
		u.First = first.String
		u.Middle = middle.String
		u.Last = last.String

		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}
