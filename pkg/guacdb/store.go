package guacdb

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods run against whichever the caller provides.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store executes the administration operations against a gateway database.
type Store struct {
	q Querier
}

// NewStore creates a store over db, which may be a *sql.DB or an open
// *sql.Tx.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// RunInTx runs fn inside a single transaction. Any error from fn rolls the
// whole transaction back; nothing is retried.
func RunInTx(ctx context.Context, db *sql.DB, fn func(*Store) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
