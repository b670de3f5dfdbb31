package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier is satisfied by both *sql.DB and *sql.Tx, so repository code can
// run inside or outside a transaction.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. A returned error or a panic rolls
// back; otherwise the transaction is committed.
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, "UPDATE ..."); err != nil {
//	        return err
//	    }
//	    return nil
//	})
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
