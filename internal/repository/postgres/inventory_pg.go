// internal/repository/postgres/inventory_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// InventoryRepository implements repository.InventoryRepository for PostgreSQL.
type InventoryRepository struct {
	q repository.DBExecutor
}

// NewInventoryRepository creates an InventoryRepository bound to q.
func NewInventoryRepository(q repository.DBExecutor) *InventoryRepository {
	return &InventoryRepository{q: q}
}

// AddItem increments or creates the user's stack of itemName.
func (r *InventoryRepository) AddItem(ctx context.Context, userID, itemName, rarity string, quantity int64) error {
	query := `INSERT INTO inventory_items (user_id, item_name, rarity, quantity)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (user_id, item_name) DO UPDATE
              SET quantity = inventory_items.quantity + EXCLUDED.quantity`
	if _, err := r.q.ExecContext(ctx, query, userID, itemName, rarity, quantity); err != nil {
		return fmt.Errorf("failed to add %d x %s to inventory of %s: %w", quantity, itemName, userID, err)
	}
	return nil
}

// RemoveItem decrements the stack and deletes it once empty.
func (r *InventoryRepository) RemoveItem(ctx context.Context, userID, itemName string, quantity int64) error {
	query := `UPDATE inventory_items SET quantity = quantity - $3
              WHERE user_id = $1 AND item_name = $2 AND quantity >= $3`
	result, err := r.q.ExecContext(ctx, query, userID, itemName, quantity)
	if err != nil {
		return fmt.Errorf("failed to remove %d x %s from inventory of %s: %w", quantity, itemName, userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after removing %s from inventory of %s: %w", itemName, userID, err)
	}
	if rowsAffected == 0 {
		return util.ErrInsufficientItems
	}

	cleanup := `DELETE FROM inventory_items WHERE user_id = $1 AND item_name = $2 AND quantity = 0`
	if _, err := r.q.ExecContext(ctx, cleanup, userID, itemName); err != nil {
		return fmt.Errorf("failed to clean up empty stack %s of %s: %w", itemName, userID, err)
	}
	return nil
}

// GetItem retrieves one stack.
func (r *InventoryRepository) GetItem(ctx context.Context, userID, itemName string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	query := `SELECT user_id, item_name, rarity, quantity FROM inventory_items WHERE user_id = $1 AND item_name = $2`
	if err := r.q.GetContext(ctx, &item, query, userID, itemName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item %s of %s: %w", itemName, userID, err)
	}
	return &item, nil
}

// ListItems returns all stacks owned by the user.
func (r *InventoryRepository) ListItems(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	items := []domain.InventoryItem{}
	query := `SELECT user_id, item_name, rarity, quantity FROM inventory_items WHERE user_id = $1 ORDER BY item_name`
	if err := r.q.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list inventory of %s: %w", userID, err)
	}
	return items, nil
}
