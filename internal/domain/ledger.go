// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerKind defines the type of an economy event.
type LedgerKind string

const (
	LedgerKindShopPurchase   LedgerKind = "SHOP_PURCHASE"
	LedgerKindMarketSale     LedgerKind = "MARKET_SALE"
	LedgerKindListingCreated LedgerKind = "LISTING_CREATED"
	LedgerKindListingRemoved LedgerKind = "LISTING_REMOVED"
	LedgerKindGrant          LedgerKind = "GRANT"
)

// LedgerEntry records a completed economy event. It is written in the same
// transaction as the balance changes it describes.
type LedgerEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Kind      LedgerKind      `db:"kind" json:"kind"`
	BuyerID   string          `db:"buyer_id" json:"buyer_id"`
	SellerID  *string         `db:"seller_id" json:"seller_id,omitempty"` // nullable for shop purchases
	ItemName  string          `db:"item_name" json:"item_name"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	Coins     decimal.Decimal `db:"coins" json:"coins"`
	Gems      decimal.Decimal `db:"gems" json:"gems"`
	TaxCoins  decimal.Decimal `db:"tax_coins" json:"tax_coins"`
	TaxGems   decimal.Decimal `db:"tax_gems" json:"tax_gems"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a new LedgerEntry instance with zero tax.
func NewLedgerEntry(kind LedgerKind, buyerID string, sellerID *string, itemName string, quantity int64, coins, gems decimal.Decimal) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.New(),
		Kind:      kind,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ItemName:  itemName,
		Quantity:  quantity,
		Coins:     coins,
		Gems:      gems,
		TaxCoins:  decimal.Zero,
		TaxGems:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
}
