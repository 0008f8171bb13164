package database

import (
	"context"
	"database/sql"
)

// TxRunner runs a function inside a database transaction.  The
// reservation engine depends on this small interface instead of *sql.DB
// directly so its unit tests can substitute a runner that skips the
// database entirely.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLRunner is the production TxRunner backed by a *sql.DB.  It commits
// when fn returns nil and rolls back otherwise, so a failed operation
// leaves no partial writes behind.
type SQLRunner struct {
	DB *sql.DB
}

// InTx begins a transaction, invokes fn and commits or rolls back based
// on the returned error.
func (r SQLRunner) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
