// internal/market/catalog.go
package market

import (
	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
)

// CatalogItem is a candidate for generated shops.
type CatalogItem struct {
	Name        string `json:"name"`
	BasePrice   int64  `json:"base_price"`
	Rarity      string `json:"rarity"`
	Picture     string `json:"picture,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// ShopItem is one slot of a user's generated shop.
type ShopItem struct {
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
	Rarity    string `json:"rarity"`
	Stock     int    `json:"stock"`
	Picture   string `json:"picture,omitempty"`
}

// Price returns the total cost of quantity units in the given currency.
// Gem prices are the coin price divided by coinsPerGem, rounded up.
func (i ShopItem) Price(currency domain.Currency, quantity int, coinsPerGem int64) decimal.Decimal {
	unit := decimal.NewFromInt(i.BasePrice)
	if currency == domain.CurrencyGems {
		if coinsPerGem < 1 {
			coinsPerGem = 1
		}
		unit = unit.Div(decimal.NewFromInt(coinsPerGem)).Ceil()
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Catalog is the full set of shop candidates.
type Catalog struct {
	items []CatalogItem
}

// NewCatalog creates a Catalog from items.
func NewCatalog(items []CatalogItem) *Catalog {
	return &Catalog{items: append([]CatalogItem(nil), items...)}
}

// Available returns the items that may appear in shops.
func (c *Catalog) Available() []CatalogItem {
	out := make([]CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		if !it.Unavailable {
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds an item by name.
func (c *Catalog) Lookup(name string) (CatalogItem, bool) {
	for _, it := range c.items {
		if it.Name == name {
			return it, true
		}
	}
	return CatalogItem{}, false
}

// DefaultCatalog returns the built-in item pool.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogItem{
		{Name: "Reimu(Common)", BasePrice: 150, Rarity: RarityCommon},
		{Name: "Marisa(Common)", BasePrice: 150, Rarity: RarityCommon},
		{Name: "Cirno(Common)", BasePrice: 120, Rarity: RarityCommon},
		{Name: "Meiling(Common)", BasePrice: 140, Rarity: RarityCommon},
		{Name: "Sakuya(UNCOMMON)", BasePrice: 400, Rarity: RarityUncommon},
		{Name: "Patchouli(UNCOMMON)", BasePrice: 420, Rarity: RarityUncommon},
		{Name: "Alice(UNCOMMON)", BasePrice: 380, Rarity: RarityUncommon},
		{Name: "Youmu(RARE)", BasePrice: 1_200, Rarity: RarityRare},
		{Name: "Reisen(RARE)", BasePrice: 1_100, Rarity: RarityRare},
		{Name: "Aya(RARE)", BasePrice: 1_250, Rarity: RarityRare},
		{Name: "Remilia(EPIC)", BasePrice: 4_000, Rarity: RarityEpic},
		{Name: "Flandre(EPIC)", BasePrice: 4_500, Rarity: RarityEpic},
		{Name: "Kaguya(OTHERWORLDLY)", BasePrice: 12_000, Rarity: RarityOtherworldly},
		{Name: "Eirin(OTHERWORLDLY)", BasePrice: 11_500, Rarity: RarityOtherworldly},
		{Name: "Yuyuko(LEGENDARY)", BasePrice: 40_000, Rarity: RarityLegendary},
		{Name: "Suika(LEGENDARY)", BasePrice: 38_000, Rarity: RarityLegendary},
		{Name: "Yukari(MYTHICAL)", BasePrice: 120_000, Rarity: RarityMythical},
		{Name: "Satori(EXCLUSIVE)", BasePrice: 300_000, Rarity: RarityExclusive},
		{Name: "Koishi(???)", BasePrice: 900_000, Rarity: RarityQuestion},
		{Name: "Okina(ASTRAL)", BasePrice: 2_500_000, Rarity: RarityAstral},
		{Name: "Hecatia(CELESTIAL)", BasePrice: 7_500_000, Rarity: RarityCelestial},
		{Name: "Junko(INFINITE)", BasePrice: 20_000_000, Rarity: RarityInfinite},
		{Name: "Shinki(ETERNAL)", BasePrice: 60_000_000, Rarity: RarityEternal},
		{Name: "Yuuka(TRANSCENDENT)", BasePrice: 200_000_000, Rarity: RarityTranscendent},
	})
}
