// internal/repository/postgres/balance_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// BalanceRepository implements repository.BalanceRepository for PostgreSQL.
type BalanceRepository struct {
	q repository.DBExecutor
}

// NewBalanceRepository creates a BalanceRepository bound to q.
func NewBalanceRepository(q repository.DBExecutor) *BalanceRepository {
	return &BalanceRepository{q: q}
}

// GetBalance retrieves a user's balance row.
func (r *BalanceRepository) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	var balance domain.Balance
	query := `SELECT user_id, coins, gems, created_at, updated_at FROM balances WHERE user_id = $1`
	err := r.q.GetContext(ctx, &balance, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get balance for user %s: %w", userID, err)
	}
	return &balance, nil
}

// CreateBalance inserts a new balance row.
func (r *BalanceRepository) CreateBalance(ctx context.Context, balance *domain.Balance) error {
	query := `INSERT INTO balances (user_id, coins, gems, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, balance.UserID, balance.Coins, balance.Gems, balance.CreatedAt, balance.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create balance for user %s: %w", balance.UserID, err)
	}
	return nil
}

// AdjustBalance adds the deltas to an existing balance row.
func (r *BalanceRepository) AdjustBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error {
	query := `UPDATE balances SET coins = coins + $1, gems = gems + $2, updated_at = $3 WHERE user_id = $4`
	result, err := r.q.ExecContext(ctx, query, coins, gems, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to adjust balance for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after adjusting balance for user %s: %w", userID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// CreditBalance increments a balance, creating the row if it does not exist.
func (r *BalanceRepository) CreditBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error {
	query := `INSERT INTO balances (user_id, coins, gems, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $4)
              ON CONFLICT (user_id) DO UPDATE
              SET coins = balances.coins + EXCLUDED.coins,
                  gems = balances.gems + EXCLUDED.gems,
                  updated_at = EXCLUDED.updated_at`
	if _, err := r.q.ExecContext(ctx, query, userID, coins, gems, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to credit balance for user %s: %w", userID, err)
	}
	return nil
}
