// internal/service/shop_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/market"
	"fumo-economy/internal/util"
)

func TestShopService_GetUserMarket(t *testing.T) {
	env := newTestEnv(t)
	entry := env.shop.GetUserMarket(context.Background(), "u1")

	assert.Equal(t, market.KindCoins, entry.Kind)
	require.Len(t, entry.Items, 3)
	assert.Equal(t, "Cirno(Common)", entry.Items[lastUnitIndex].Name)
	assert.Equal(t, 1, entry.Items[lastUnitIndex].Stock)
	assert.Equal(t, 10, entry.Items[rareIndex].Stock)
}

func TestShopService_ValidateShopPurchase(t *testing.T) {
	tests := []struct {
		name     string
		fund     bool
		coins    int64
		index    int
		quantity int
		currency domain.Currency
		wantCode util.Code
		wantCost int64
	}{
		{name: "valid", fund: true, coins: 1000, index: rareIndex, quantity: 3, currency: domain.CurrencyCoins, wantCost: 300},
		{name: "zero quantity", fund: true, coins: 1000, index: rareIndex, quantity: 0, currency: domain.CurrencyCoins, wantCode: util.CodeInvalidInput},
		{name: "index out of range", fund: true, coins: 1000, index: 9, quantity: 1, currency: domain.CurrencyCoins, wantCode: util.CodeNotFound},
		{name: "negative index", fund: true, coins: 1000, index: -1, quantity: 1, currency: domain.CurrencyCoins, wantCode: util.CodeNotFound},
		{name: "more than stock", fund: true, coins: 1000, index: lastUnitIndex, quantity: 2, currency: domain.CurrencyCoins, wantCode: util.CodeInsufficientStock},
		{name: "no account", index: rareIndex, quantity: 1, currency: domain.CurrencyCoins, wantCode: util.CodeNoAccount, wantCost: 100},
		{name: "not enough coins", fund: true, coins: 99, index: rareIndex, quantity: 1, currency: domain.CurrencyCoins, wantCode: util.CodeInsufficientCoins, wantCost: 100},
		{name: "not enough gems", fund: true, coins: 1000, index: gemIndex, quantity: 1, currency: domain.CurrencyGems, wantCode: util.CodeInsufficientGems, wantCost: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			if tt.fund {
				env.fund(t, "u1", tt.coins, 0)
			}
			shop := env.shop.GetShop(ctx, "u1", market.KindFor(tt.currency))

			v, err := env.shop.ValidateShopPurchase(ctx, "u1", tt.index, tt.quantity, shop, tt.currency)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, v.Code)
			assert.Equal(t, tt.wantCode.OK(), v.Valid)
			if tt.wantCost > 0 {
				assert.True(t, decimal.NewFromInt(tt.wantCost).Equal(v.TotalPrice), "total %s", v.TotalPrice)
			}
		})
	}
}

func TestShopService_Purchase(t *testing.T) {
	t.Run("SuccessfulCoinPurchase", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "u1", 1000, 0)

		res, err := env.shop.Purchase(ctx, "u1", market.KindCoins, rareIndex, 3)

		require.NoError(t, err)
		assert.Equal(t, util.CodeOK, res.Code)
		assert.True(t, decimal.NewFromInt(700).Equal(res.RemainingBalance))
		coins, _ := env.balance(t, "u1")
		assert.Equal(t, int64(700), coins)
		assert.Equal(t, int64(3), env.owned(t, "u1", "Youmu(RARE)"))

		item, ok := env.cache.FindItem("u1", market.KindCoins, "Youmu(RARE)")
		require.True(t, ok)
		assert.Equal(t, 7, item.Stock)

		entries, total, err := env.accounts.GetHistory(ctx, "u1", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, domain.LedgerKindShopPurchase, entries[0].Kind)
		assert.True(t, decimal.NewFromInt(300).Equal(entries[0].Coins))
	})

	t.Run("GemShopRoundsPriceUp", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "u1", 0, 40)

		res, err := env.shop.Purchase(ctx, "u1", market.KindGems, gemIndex, 2)

		require.NoError(t, err)
		require.Equal(t, util.CodeOK, res.Code)
		assert.Equal(t, domain.CurrencyGems, res.Currency)
		_, gems := env.balance(t, "u1")
		assert.Equal(t, int64(8), gems)

		_, ok := env.cache.FindItem("u1", market.KindCoins, "Aya(RARE)")
		assert.False(t, ok, "coin shop is untouched until generated")
	})

	t.Run("SoldOutItemDisappears", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "u1", 1000, 0)

		res, err := env.shop.Purchase(ctx, "u1", market.KindCoins, lastUnitIndex, 1)
		require.NoError(t, err)
		require.Equal(t, util.CodeOK, res.Code)

		shop := env.shop.GetUserMarket(ctx, "u1")
		require.Len(t, shop.Items, 2)
		for _, it := range shop.Items {
			assert.NotEqual(t, "Cirno(Common)", it.Name)
		}
	})

	t.Run("BalanceDrainedAfterValidation", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "u1", 100, 0)
		shop := env.shop.GetUserMarket(ctx, "u1")

		v, err := env.shop.ValidateShopPurchase(ctx, "u1", rareIndex, 1, shop, domain.CurrencyCoins)
		require.NoError(t, err)
		require.True(t, v.Valid)

		require.NoError(t, env.store.Balances().AdjustBalance(ctx, "u1", decimal.NewFromInt(-50), decimal.Zero))

		res, err := env.shop.ProcessShopPurchase(ctx, "u1", v.Item, 1, v.TotalPrice, domain.CurrencyCoins)
		require.NoError(t, err)
		assert.Equal(t, util.CodeInsufficientCoins, res.Code)
		coins, _ := env.balance(t, "u1")
		assert.Equal(t, int64(50), coins)
		assert.Zero(t, env.owned(t, "u1", "Youmu(RARE)"))
		item, _ := env.cache.FindItem("u1", market.KindCoins, "Youmu(RARE)")
		assert.Equal(t, 10, item.Stock)
	})

	t.Run("TotalMustMatchShopPrice", func(t *testing.T) {
		tests := []struct {
			name  string
			total decimal.Decimal
		}{
			{"Zero", decimal.Zero},
			{"Understated", decimal.NewFromInt(299)},
			{"Overstated", decimal.NewFromInt(301)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t)
				ctx := context.Background()
				env.fund(t, "u1", 1000, 0)
				shop := env.shop.GetUserMarket(ctx, "u1")
				item := shop.Items[rareIndex]

				res, err := env.shop.ProcessShopPurchase(ctx, "u1", item, 3, tt.total, domain.CurrencyCoins)

				require.NoError(t, err)
				assert.Equal(t, util.CodeInvalidInput, res.Code)
				coins, _ := env.balance(t, "u1")
				assert.Equal(t, int64(1000), coins)
				assert.Zero(t, env.owned(t, "u1", "Youmu(RARE)"))
				current, ok := env.cache.FindItem("u1", market.KindCoins, "Youmu(RARE)")
				require.True(t, ok)
				assert.Equal(t, 10, current.Stock)
				assert.Zero(t, env.locks.Held())
			})
		}
	})

	t.Run("FailedWriteLeavesEverythingUntouched", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "u1", 1000, 0)
		env.shop.GetUserMarket(ctx, "u1")
		env.store.InjectFault(func(op string) error {
			if op == "inventory.add" {
				return errors.New("disk on fire")
			}
			return nil
		})

		_, err := env.shop.Purchase(ctx, "u1", market.KindCoins, rareIndex, 2)

		require.Error(t, err)
		env.store.InjectFault(nil)
		coins, _ := env.balance(t, "u1")
		assert.Equal(t, int64(1000), coins)
		item, _ := env.cache.FindItem("u1", market.KindCoins, "Youmu(RARE)")
		assert.Equal(t, 10, item.Stock)
	})
}

func TestShopService_LastUnitRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, "u1", 1000, 0)
	shop := env.shop.GetUserMarket(ctx, "u1")

	// Both requests pass validation against the same snapshot.
	var validations [2]ShopValidation
	for i := range validations {
		v, err := env.shop.ValidateShopPurchase(ctx, "u1", lastUnitIndex, 1, shop, domain.CurrencyCoins)
		require.NoError(t, err)
		require.True(t, v.Valid)
		validations[i] = v
	}

	var wg sync.WaitGroup
	results := make([]ShopPurchaseResult, len(validations))
	for i, v := range validations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.shop.ProcessShopPurchase(ctx, "u1", v.Item, 1, v.TotalPrice, domain.CurrencyCoins)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	codes := []util.Code{results[0].Code, results[1].Code}
	assert.ElementsMatch(t, []util.Code{util.CodeOK, util.CodeInsufficientStock}, codes)
	coins, _ := env.balance(t, "u1")
	assert.Equal(t, int64(900), coins)
	assert.Equal(t, int64(1), env.owned(t, "u1", "Cirno(Common)"))
}

func TestShopService_ConcurrentPurchasesNeverOverdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, "u1", 500, 0)
	shop := env.shop.GetUserMarket(ctx, "u1")
	item := shop.Items[rareIndex]

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.shop.ProcessShopPurchase(ctx, "u1", item, 1, decimal.NewFromInt(item.BasePrice), domain.CurrencyCoins)
			assert.NoError(t, err)
			if res.Code.OK() {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.Contains(t, []util.Code{util.CodeInsufficientCoins, util.CodeInsufficientStock}, res.Code)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, successes)
	coins, _ := env.balance(t, "u1")
	assert.Equal(t, int64(0), coins)
	assert.Equal(t, int64(5), env.owned(t, "u1", item.Name))
	current, ok := env.cache.FindItem("u1", market.KindCoins, item.Name)
	require.True(t, ok)
	assert.Equal(t, 5, current.Stock)
}
