// internal/repository/balance_repo.go
package repository

import (
	"context"

	"fumo-economy/internal/domain"

	"github.com/shopspring/decimal"
)

// BalanceRepository defines the interface for balance data operations.
type BalanceRepository interface {
	// GetBalance retrieves a user's balance; util.ErrNotFound when the row is missing.
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
	// CreateBalance inserts a new balance row; util.ErrDuplicateEntry when it exists.
	CreateBalance(ctx context.Context, balance *domain.Balance) error
	// AdjustBalance adds the (possibly negative) deltas to an existing row.
	// Callers must have verified the result stays non-negative.
	AdjustBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error
	// CreditBalance unconditionally increments a balance, creating the row if needed.
	CreditBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error
}
