package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs a unit of work inside a single transaction scope.
type Transactor interface {
	WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(q DBTX) error) error
}

// ReadSnapshot is used for multi-query reads that must observe one consistent state.
var ReadSnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

type transactor struct {
	db *sql.DB
}

// NewTransactor returns a Transactor over the given pool.
func NewTransactor(db *sql.DB) Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *transactor) WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(q DBTX) error) error {
	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
