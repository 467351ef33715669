// internal/service/helpers_test.go
package service

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fumo-economy/internal/lock"
	"fumo-economy/internal/market"
	"fumo-economy/internal/repository/memory"
)

// testTable makes generation deterministic: every candidate is included in
// pool order with a fixed stock.
func testTable() market.RarityTable {
	return market.RarityTable{
		market.RarityCommon: {Name: market.RarityCommon, Chance: 1, MinStock: 1, MaxStock: 1},
		market.RarityRare:   {Name: market.RarityRare, Chance: 1, MinStock: 10, MaxStock: 10},
	}
}

func testPool() []market.CatalogItem {
	return []market.CatalogItem{
		{Name: "Cirno(Common)", BasePrice: 100, Rarity: market.RarityCommon},
		{Name: "Youmu(RARE)", BasePrice: 100, Rarity: market.RarityRare},
		{Name: "Aya(RARE)", BasePrice: 155, Rarity: market.RarityRare},
	}
}

const (
	lastUnitIndex = 0
	rareIndex     = 1
	gemIndex      = 2
)

type testEnv struct {
	store       *memory.Store
	locks       *lock.Manager
	cache       *market.Cache
	shop        ShopService
	marketplace MarketplaceService
	accounts    AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	locks := lock.NewManager()

	gen := market.NewGenerator(market.GeneratorConfig{MinItems: 0, MaxItemsLow: 10, MaxItemsHigh: 10}, testTable(), rand.New(rand.NewPCG(1, 2)), nil)
	cache := market.NewCache(gen, testPool, time.Hour, nil)
	cache.SetClock(func() time.Time { return time.Date(2026, 3, 14, 10, 17, 0, 0, time.UTC) })

	return &testEnv{
		store:    store,
		locks:    locks,
		cache:    cache,
		shop:     NewShopService(store, locks, cache, 10, nil),
		accounts: NewAccountService(store, locks, AccountConfig{StartingCoins: decimal.Zero, StartingGems: decimal.Zero}, nil),
		marketplace: NewMarketplaceService(store, locks, MarketplaceConfig{
			TaxRate:            decimal.NewFromFloat(0.05),
			MaxListingsPerUser: 2,
		}, nil),
	}
}

func (e *testEnv) fund(t *testing.T, userID string, coins, gems int64) {
	t.Helper()
	require.NoError(t, e.store.Balances().CreateBalance(context.Background(), balanceOf(userID, coins, gems)))
}

func (e *testEnv) give(t *testing.T, userID, itemName string, quantity int64) {
	t.Helper()
	require.NoError(t, e.store.Inventory().AddItem(context.Background(), userID, itemName, market.RarityRare, quantity))
}

func (e *testEnv) balance(t *testing.T, userID string) (coins, gems int64) {
	t.Helper()
	b, err := e.store.Balances().GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b.Coins.IntPart(), b.Gems.IntPart()
}

func (e *testEnv) owned(t *testing.T, userID, itemName string) int64 {
	t.Helper()
	item, err := e.store.Inventory().GetItem(context.Background(), userID, itemName)
	if err != nil {
		return 0
	}
	return item.Quantity
}
