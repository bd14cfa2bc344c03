package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database handle the stores execute against. Both
// *sql.DB and *sql.Tx implement it, so a store created on the pool can be
// rebound to a transaction with WithTx when a lifecycle update needs the
// task row and its activity entries to commit together.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
