// internal/service/marketplace_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/market"
	"fumo-economy/internal/util"
)

const listedItem = "Remilia(EPIC)"

func (e *testEnv) list(t *testing.T, sellerID string, coins, gems int64) *domain.Listing {
	t.Helper()
	e.give(t, sellerID, listedItem, 1)
	res, err := e.marketplace.CreateListing(context.Background(), sellerID, listedItem, decimal.NewFromInt(coins), decimal.NewFromInt(gems))
	require.NoError(t, err)
	require.Equal(t, util.CodeOK, res.Code)
	return res.Listing
}

func TestMarketplaceService_CreateListing(t *testing.T) {
	tests := []struct {
		name     string
		owned    int64
		coins    decimal.Decimal
		gems     decimal.Decimal
		existing int
		wantCode util.Code
	}{
		{name: "success", owned: 2, coins: decimal.NewFromInt(10), gems: decimal.NewFromInt(1)},
		{name: "zero coin price", owned: 1, coins: decimal.Zero, gems: decimal.NewFromInt(1), wantCode: util.CodeInvalidPrice},
		{name: "negative gem price", owned: 1, coins: decimal.NewFromInt(1), gems: decimal.NewFromInt(-1), wantCode: util.CodeInvalidPrice},
		{name: "fractional price", owned: 1, coins: decimal.NewFromFloat(1.5), gems: decimal.NewFromInt(1), wantCode: util.CodeInvalidPrice},
		{name: "not owned", owned: 0, coins: decimal.NewFromInt(10), gems: decimal.NewFromInt(1), wantCode: util.CodeItemNotOwned},
		{name: "listing limit", owned: 3, existing: 2, coins: decimal.NewFromInt(10), gems: decimal.NewFromInt(1), wantCode: util.CodeListingLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			if tt.owned > 0 {
				env.give(t, "seller", listedItem, tt.owned)
			}
			for i := 0; i < tt.existing; i++ {
				res, err := env.marketplace.CreateListing(ctx, "seller", listedItem, decimal.NewFromInt(5), decimal.NewFromInt(5))
				require.NoError(t, err)
				require.True(t, res.Code.OK())
			}
			before := env.owned(t, "seller", listedItem)

			res, err := env.marketplace.CreateListing(ctx, "seller", listedItem, tt.coins, tt.gems)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, res.Code)
			if tt.wantCode.OK() {
				require.NotNil(t, res.Listing)
				assert.Equal(t, market.RarityRare, res.Listing.Rarity)
				assert.Equal(t, before-1, env.owned(t, "seller", listedItem))
				got, err := env.marketplace.GetListing(ctx, res.Listing.ID)
				require.NoError(t, err)
				assert.Equal(t, "seller", got.SellerID)
			} else {
				assert.Nil(t, res.Listing)
				assert.Equal(t, before, env.owned(t, "seller", listedItem))
			}
		})
	}
}

func TestMarketplaceService_RemoveListing(t *testing.T) {
	t.Run("SellerGetsItemBack", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		listing := env.list(t, "seller", 10, 1)
		require.Zero(t, env.owned(t, "seller", listedItem))

		res, err := env.marketplace.RemoveListing(ctx, "seller", listing.ID)

		require.NoError(t, err)
		assert.Equal(t, util.CodeOK, res.Code)
		assert.Equal(t, int64(1), env.owned(t, "seller", listedItem))
		_, err = env.marketplace.GetListing(ctx, listing.ID)
		assert.ErrorIs(t, err, util.ErrNotFound)
	})

	t.Run("NotOwner", func(t *testing.T) {
		env := newTestEnv(t)
		listing := env.list(t, "seller", 10, 1)

		res, err := env.marketplace.RemoveListing(context.Background(), "thief", listing.ID)

		require.NoError(t, err)
		assert.Equal(t, util.CodeNotListingOwner, res.Code)
		assert.Zero(t, env.owned(t, "thief", listedItem))
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv(t)
		res, err := env.marketplace.RemoveListing(context.Background(), "seller", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, util.CodeNotFound, res.Code)
	})
}

func TestMarketplaceService_ListListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.list(t, "alice", 10, 1)
	env.list(t, "alice", 20, 2)
	env.list(t, "bob", 30, 3)

	all, total, err := env.marketplace.ListListings(ctx, domain.ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	alice, total, err := env.marketplace.ListListings(ctx, domain.ListingFilter{SellerID: "alice", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, alice, 1)
	assert.Equal(t, "alice", alice[0].SellerID)
}

func TestMarketplaceService_Purchase(t *testing.T) {
	t.Run("TaxedTransfer", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "buyer", 2000, 200)
		env.fund(t, "seller", 0, 0)
		listing := env.list(t, "seller", 1000, 100)

		res, err := env.marketplace.Purchase(ctx, "buyer", listing.ID)

		require.NoError(t, err)
		require.Equal(t, util.CodeOK, res.Code)
		assert.True(t, decimal.NewFromInt(1000).Equal(res.RemainingCoins))
		assert.True(t, decimal.NewFromInt(100).Equal(res.RemainingGems))
		assert.True(t, decimal.NewFromInt(950).Equal(res.SellerReceivesCoins))
		assert.True(t, decimal.NewFromInt(95).Equal(res.SellerReceivesGems))
		assert.True(t, decimal.NewFromInt(50).Equal(res.TaxCoins))
		assert.True(t, decimal.NewFromInt(5).Equal(res.TaxGems))

		coins, gems := env.balance(t, "buyer")
		assert.Equal(t, [2]int64{1000, 100}, [2]int64{coins, gems})
		coins, gems = env.balance(t, "seller")
		assert.Equal(t, [2]int64{950, 95}, [2]int64{coins, gems})
		assert.Equal(t, int64(1), env.owned(t, "buyer", listedItem))
		_, err = env.marketplace.GetListing(ctx, listing.ID)
		assert.ErrorIs(t, err, util.ErrNotFound)

		entries, _, err := env.accounts.GetHistory(ctx, "seller", 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, domain.LedgerKindMarketSale, entries[0].Kind)
	})

	t.Run("SellerWithoutAccountIsCredited", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, "buyer", 100, 100)
		listing := env.list(t, "seller", 19, 40)

		res, err := env.marketplace.Purchase(context.Background(), "buyer", listing.ID)

		require.NoError(t, err)
		require.Equal(t, util.CodeOK, res.Code)
		assert.True(t, res.TaxCoins.IsZero(), "floor(19 * 0.05) is 0")
		coins, gems := env.balance(t, "seller")
		assert.Equal(t, [2]int64{19, 38}, [2]int64{coins, gems})
	})

	t.Run("SelfTradeDenied", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, "seller", 5000, 500)
		listing := env.list(t, "seller", 10, 1)

		res, err := env.marketplace.Purchase(context.Background(), "seller", listing.ID)

		require.NoError(t, err)
		assert.Equal(t, util.CodeSelfTradeDenied, res.Code)
		coins, gems := env.balance(t, "seller")
		assert.Equal(t, [2]int64{5000, 500}, [2]int64{coins, gems})

		direct, err := env.marketplace.ProcessGlobalPurchase(context.Background(), "seller", listing)
		require.NoError(t, err)
		assert.Equal(t, util.CodeSelfTradeDenied, direct.Code)
	})

	t.Run("ListingGone", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "buyer", 100, 100)
		listing := env.list(t, "seller", 10, 1)
		_, err := env.marketplace.RemoveListing(ctx, "seller", listing.ID)
		require.NoError(t, err)

		res, err := env.marketplace.ProcessGlobalPurchase(ctx, "buyer", listing)

		require.NoError(t, err)
		assert.Equal(t, util.CodeListingUnavailable, res.Code)
		coins, gems := env.balance(t, "buyer")
		assert.Equal(t, [2]int64{100, 100}, [2]int64{coins, gems})

		res, err = env.marketplace.Purchase(ctx, "buyer", listing.ID)
		require.NoError(t, err)
		assert.Equal(t, util.CodeListingUnavailable, res.Code)
	})

	t.Run("InsufficientGems", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, "buyer", 2000, 50)
		listing := env.list(t, "seller", 1000, 100)

		res, err := env.marketplace.Purchase(context.Background(), "buyer", listing.ID)

		require.NoError(t, err)
		assert.Equal(t, util.CodeInsufficientGems, res.Code)
		assert.True(t, decimal.NewFromInt(50).Equal(res.RemainingGems))
	})

	t.Run("NoAccount", func(t *testing.T) {
		env := newTestEnv(t)
		listing := env.list(t, "seller", 10, 1)

		res, err := env.marketplace.Purchase(context.Background(), "ghost", listing.ID)

		require.NoError(t, err)
		assert.Equal(t, util.CodeNoAccount, res.Code)
	})

	t.Run("FailureAfterDebitRollsBack", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		env.fund(t, "buyer", 2000, 200)
		listing := env.list(t, "seller", 1000, 100)
		env.store.InjectFault(func(op string) error {
			if op == "inventory.add" {
				return errors.New("write failed")
			}
			return nil
		})

		_, err := env.marketplace.Purchase(ctx, "buyer", listing.ID)

		require.Error(t, err)
		env.store.InjectFault(nil)
		coins, gems := env.balance(t, "buyer")
		assert.Equal(t, [2]int64{2000, 200}, [2]int64{coins, gems})
		_, err = env.store.Balances().GetBalance(ctx, "seller")
		assert.ErrorIs(t, err, util.ErrNotFound)
		got, err := env.marketplace.GetListing(ctx, listing.ID)
		require.NoError(t, err)
		assert.Equal(t, listing.ID, got.ID)
	})
}

func TestMarketplaceService_ConcurrentBuyersOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.list(t, "seller", 100, 10)
	buyers := []string{"b1", "b2", "b3", "b4", "b5"}
	for _, b := range buyers {
		env.fund(t, b, 100, 10)
	}

	var wg sync.WaitGroup
	results := make([]GlobalPurchaseResult, len(buyers))
	for i, b := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.marketplace.ProcessGlobalPurchase(ctx, b, listing)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	winners := 0
	totalCoins, totalGems := int64(0), int64(0)
	for i, res := range results {
		if res.Code.OK() {
			winners++
		} else {
			assert.Equal(t, util.CodeListingUnavailable, res.Code)
		}
		coins, gems := env.balance(t, buyers[i])
		totalCoins += coins
		totalGems += gems
	}
	assert.Equal(t, 1, winners)

	// Buyer debits equal seller credits plus tax.
	sellerCoins, sellerGems := env.balance(t, "seller")
	assert.Equal(t, int64(500-100), totalCoins)
	assert.Equal(t, int64(50-10), totalGems)
	assert.Equal(t, int64(95), sellerCoins)
	assert.Equal(t, int64(10), sellerGems)
}
