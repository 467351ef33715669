// internal/repository/postgres/store.go
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"fumo-economy/internal/repository"
	"fumo-economy/pkg/db"
)

type repos struct {
	balances  *BalanceRepository
	inventory *InventoryRepository
	listings  *ListingRepository
	ledger    *LedgerRepository
}

func newRepos(q repository.DBExecutor) *repos {
	return &repos{
		balances:  NewBalanceRepository(q),
		inventory: NewInventoryRepository(q),
		listings:  NewListingRepository(q),
		ledger:    NewLedgerRepository(q),
	}
}

func (r *repos) Balances() repository.BalanceRepository    { return r.balances }
func (r *repos) Inventory() repository.InventoryRepository { return r.inventory }
func (r *repos) Listings() repository.ListingRepository    { return r.listings }
func (r *repos) Ledger() repository.LedgerRepository       { return r.ledger }

// Store implements repository.Store on top of the retrying storage adapter.
type Store struct {
	*repos
	db *db.DB
}

// NewStore creates a Store. Reads outside WithTx go through d's busy-retry.
func NewStore(d *db.DB) *Store {
	return &Store{repos: newRepos(d), db: d}
}

// WithTx runs fn in one database transaction, retried as a unit on busy errors.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(newRepos(tx))
	})
}
