// internal/repository/store.go
package repository

import "context"

// Repositories groups the repositories bound to one executor: either the
// connection pool or a single transaction.
type Repositories interface {
	Balances() BalanceRepository
	Inventory() InventoryRepository
	Listings() ListingRepository
	Ledger() LedgerRepository
}

// Store is the persistence boundary of the economy engine. The embedded
// Repositories serve non-transactional reads; WithTx applies every write made
// through tx or none of them.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(tx Repositories) error) error
}
