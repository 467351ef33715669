// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct {
	q repository.DBExecutor
}

// NewLedgerRepository creates a LedgerRepository bound to q.
func NewLedgerRepository(q repository.DBExecutor) *LedgerRepository {
	return &LedgerRepository{q: q}
}

// RecordEntry inserts a new ledger entry.
func (r *LedgerRepository) RecordEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, kind, buyer_id, seller_id, item_name, quantity, coins, gems, tax_coins, tax_gems, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.Kind,
		entry.BuyerID,
		entry.SellerID,
		entry.ItemName,
		entry.Quantity,
		entry.Coins,
		entry.Gems,
		entry.TaxCoins,
		entry.TaxGems,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// ListEntriesByUser retrieves a paginated list of entries involving the user.
// It performs two queries: one for the data and one for the total count.
func (r *LedgerRepository) ListEntriesByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	entries := []domain.LedgerEntry{}

	// Query 1: Get the paginated entries
	// Both buyer_id and seller_id are checked so sellers see their sales.
	query := `
		SELECT id, kind, buyer_id, seller_id, item_name, quantity, coins, gems, tax_coins, tax_gems, created_at
		FROM ledger_entries
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	err := r.q.SelectContext(ctx, &entries, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries for user %s: %w", userID, err)
	}

	// Query 2: Get the total count of entries for the user
	var totalCount int64
	countQuery := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE buyer_id = $1 OR seller_id = $1`
	err = r.q.GetContext(ctx, &totalCount, countQuery, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total ledger entry count for user %s: %w", userID, err)
	}

	return entries, totalCount, nil
}
