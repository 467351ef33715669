// internal/repository/inventory_repo.go
package repository

import (
	"context"

	"fumo-economy/internal/domain"
)

// InventoryRepository defines the interface for item ownership operations.
type InventoryRepository interface {
	// AddItem increments the stack for itemName, creating it if needed.
	AddItem(ctx context.Context, userID, itemName, rarity string, quantity int64) error
	// RemoveItem decrements the stack, deleting it at zero.
	// It returns util.ErrInsufficientItems when fewer than quantity are owned.
	RemoveItem(ctx context.Context, userID, itemName string, quantity int64) error
	// GetItem retrieves one stack; util.ErrNotFound when not owned.
	GetItem(ctx context.Context, userID, itemName string) (*domain.InventoryItem, error)
	// ListItems returns every stack the user owns ordered by name.
	ListItems(ctx context.Context, userID string) ([]domain.InventoryItem, error)
}
