// internal/domain/listing.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a player-created global marketplace offer. A buyer must pay both
// CoinPrice and GemPrice for it to clear.
type Listing struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	SellerID  string          `db:"seller_id" json:"seller_id"`
	ItemName  string          `db:"item_name" json:"item_name"`
	Rarity    string          `db:"rarity" json:"rarity"`
	CoinPrice decimal.Decimal `db:"coin_price" json:"coin_price"`
	GemPrice  decimal.Decimal `db:"gem_price" json:"gem_price"`
	ListedAt  time.Time       `db:"listed_at" json:"listed_at"`
}

// NewListing creates a new Listing instance with a fresh ID.
func NewListing(sellerID, itemName, rarity string, coinPrice, gemPrice decimal.Decimal) *Listing {
	return &Listing{
		ID:        uuid.New(),
		SellerID:  sellerID,
		ItemName:  itemName,
		Rarity:    rarity,
		CoinPrice: coinPrice,
		GemPrice:  gemPrice,
		ListedAt:  time.Now().UTC(),
	}
}

// ListingFilter narrows a listing query.
type ListingFilter struct {
	SellerID string
	Rarity   string
	Limit    int
	Offset   int
}
