// internal/domain/inventory.go
package domain

// InventoryItem is a stack of identical items owned by a user.
type InventoryItem struct {
	UserID   string `db:"user_id" json:"user_id"`
	ItemName string `db:"item_name" json:"item_name"`
	Rarity   string `db:"rarity" json:"rarity"`
	Quantity int64  `db:"quantity" json:"quantity"`
}
