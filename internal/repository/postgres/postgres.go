package postgres

import (
	"context"
	"database/sql"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories hold a querier so the same implementation runs standalone or
// bound to a transaction via WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
