// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// DBTxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type DBTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Injectable transaction lifecycle functions.
type (
	BeginTxFunc    func(ctx context.Context, dbConn DBTxBeginner) (*sqlx.Tx, error)
	CommitTxFunc   func(tx TxController) error
	RollbackTxFunc func(tx TxController)
)

// BeginTx starts a new database transaction at REPEATABLE READ so a
// concurrent writer surfaces as a serialization failure instead of a lost update.
func BeginTx(ctx context.Context, dbConn DBTxBeginner) (*sqlx.Tx, error) {
	return dbConn.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		// Log the error, but don't return it as it's typically a deferred call
		slog.Default().Error("Error rolling back transaction", "error", err)
	}
}
