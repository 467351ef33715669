// internal/domain/balance.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal" // For unbounded integer currency amounts
)

// Currency identifies one of the two game currencies.
type Currency string

const (
	CurrencyCoins Currency = "coins"
	CurrencyGems  Currency = "gems"
)

// ParseCurrency accepts "coins"/"coin" and "gems"/"gem".
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coins", "coin":
		return CurrencyCoins, nil
	case "gems", "gem":
		return CurrencyGems, nil
	default:
		return "", fmt.Errorf("unknown currency %q", s)
	}
}

// Balance represents a user's currency holdings.
type Balance struct {
	UserID    string          `db:"user_id" json:"user_id"`
	Coins     decimal.Decimal `db:"coins" json:"coins"` // NUMERIC(40, 0) in DB
	Gems      decimal.Decimal `db:"gems" json:"gems"`   // NUMERIC(40, 0) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewBalance creates a new Balance instance.
func NewBalance(userID string, coins, gems decimal.Decimal) *Balance {
	now := time.Now().UTC()
	return &Balance{
		UserID:    userID,
		Coins:     coins,
		Gems:      gems,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Amount returns the holding in the given currency.
func (b *Balance) Amount(c Currency) decimal.Decimal {
	if c == CurrencyGems {
		return b.Gems
	}
	return b.Coins
}
