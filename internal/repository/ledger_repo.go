// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"fumo-economy/internal/domain"
)

// LedgerRepository defines the interface for the economy event log.
type LedgerRepository interface {
	// RecordEntry adds a new entry.
	RecordEntry(ctx context.Context, entry *domain.LedgerEntry) error
	// ListEntriesByUser returns a page of entries where the user is buyer or
	// seller, newest first, plus the total count.
	ListEntriesByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error)
}
