// pkg/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Statement is one parameterized SQL statement of a batch.
type Statement struct {
	SQL    string
	Params []interface{}
}

// Result reports the effect of a Run call.
type Result struct {
	Changes int64
}

// DB is the storage adapter: get/all/run/transaction verbs over sqlx, each
// wrapped in the busy-retry policy.
type DB struct {
	conn       *sqlx.DB
	policy     RetryPolicy
	beginTx    BeginTxFunc
	commitTx   CommitTxFunc
	rollbackTx RollbackTxFunc
}

// New wraps an open connection pool.
func New(conn *sqlx.DB, policy RetryPolicy) *DB {
	return &DB{
		conn:       conn,
		policy:     policy.normalized(),
		beginTx:    BeginTx,
		commitTx:   CommitTx,
		rollbackTx: RollbackTx,
	}
}

// Conn exposes the underlying pool for non-transactional reads.
func (d *DB) Conn() *sqlx.DB {
	return d.conn
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Get scans a single row into dest. sql.ErrNoRows is returned unchanged.
func (d *DB) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return Retry(ctx, d.policy, func(ctx context.Context) error {
		return d.conn.GetContext(ctx, dest, query, args...)
	})
}

// All scans every row into dest, which must be a pointer to a slice.
func (d *DB) All(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return Retry(ctx, d.policy, func(ctx context.Context) error {
		return d.conn.SelectContext(ctx, dest, query, args...)
	})
}

// Run executes a statement and reports the number of affected rows.
func (d *DB) Run(ctx context.Context, query string, args ...interface{}) (Result, error) {
	var res Result
	err := Retry(ctx, d.policy, func(ctx context.Context) error {
		r, err := d.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		res.Changes, err = r.RowsAffected()
		return err
	})
	return res, err
}

// GetContext, SelectContext and ExecContext let *DB stand in wherever a
// sqlx executor is expected, with busy-retry applied.

func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.Get(ctx, dest, query, args...)
}

func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.All(ctx, dest, query, args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	err := Retry(ctx, d.policy, func(ctx context.Context) error {
		var err error
		res, err = d.conn.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Transaction applies every statement or none.
func (d *DB) Transaction(ctx context.Context, stmts []Statement) error {
	return d.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, st := range stmts {
			if _, err := tx.ExecContext(ctx, st.SQL, st.Params...); err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
		}
		return nil
	})
}

// WithTx runs fn inside a transaction and commits when fn returns nil. The
// whole unit is retried on busy errors, so fn must not have side effects
// outside the transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return Retry(ctx, d.policy, func(ctx context.Context) error {
		tx, err := d.beginTx(ctx, d.conn)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer d.rollbackTx(tx)

		if err := fn(tx); err != nil {
			return err
		}
		if err := d.commitTx(tx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
