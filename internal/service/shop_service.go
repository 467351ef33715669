// internal/service/shop_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/lock"
	"fumo-economy/internal/market"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// ShopValidation is the result of the lock-free pre-check of a shop purchase.
type ShopValidation struct {
	Valid      bool            `json:"valid"`
	Item       market.ShopItem `json:"item"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Code       util.Code       `json:"code,omitempty"`
}

// ShopPurchaseResult is the outcome of a processed shop purchase.
type ShopPurchaseResult struct {
	Item             market.ShopItem `json:"item"`
	Quantity         int             `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         domain.Currency `json:"currency"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Code             util.Code       `json:"code,omitempty"`
}

// ShopService defines the interface for personal shop purchases.
type ShopService interface {
	GetUserMarket(ctx context.Context, userID string) market.Entry
	GetShop(ctx context.Context, userID string, kind market.Kind) market.Entry
	ValidateShopPurchase(ctx context.Context, userID string, itemIndex, quantity int, shop market.Entry, currency domain.Currency) (ShopValidation, error)
	ProcessShopPurchase(ctx context.Context, userID string, item market.ShopItem, quantity int, totalPrice decimal.Decimal, currency domain.Currency) (ShopPurchaseResult, error)
	Purchase(ctx context.Context, userID string, kind market.Kind, itemIndex, quantity int) (ShopPurchaseResult, error)
}

// shopService implements the ShopService interface.
type shopService struct {
	store       repository.Store
	locks       *lock.Manager
	cache       *market.Cache
	coinsPerGem int64
	logger      *slog.Logger
}

// NewShopService creates a new instance of ShopService.
func NewShopService(store repository.Store, locks *lock.Manager, cache *market.Cache, coinsPerGem int64, logger *slog.Logger) ShopService {
	if logger == nil {
		logger = slog.Default()
	}
	return &shopService{
		store:       store,
		locks:       locks,
		cache:       cache,
		coinsPerGem: coinsPerGem,
		logger:      logger,
	}
}

// GetUserMarket returns the user's coin shop.
func (s *shopService) GetUserMarket(ctx context.Context, userID string) market.Entry {
	return s.GetShop(ctx, userID, market.KindCoins)
}

func (s *shopService) GetShop(ctx context.Context, userID string, kind market.Kind) market.Entry {
	return s.cache.Get(userID, kind)
}

// ValidateShopPurchase checks a purchase against a snapshot of the shop
// without locking. The balance check is advisory; ProcessShopPurchase
// re-checks everything under the user's lock.
func (s *shopService) ValidateShopPurchase(ctx context.Context, userID string, itemIndex, quantity int, shop market.Entry, currency domain.Currency) (ShopValidation, error) {
	if quantity < 1 {
		return ShopValidation{Code: util.CodeInvalidInput}, nil
	}
	if itemIndex < 0 || itemIndex >= len(shop.Items) {
		return ShopValidation{Code: util.CodeNotFound}, nil
	}
	item := shop.Items[itemIndex]
	if quantity > item.Stock {
		return ShopValidation{Item: item, Code: util.CodeInsufficientStock}, nil
	}

	total := item.Price(currency, quantity, s.coinsPerGem)
	balance, err := s.store.Balances().GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return ShopValidation{Item: item, TotalPrice: total, Code: util.CodeNoAccount}, nil
		}
		return ShopValidation{}, fmt.Errorf("validate shop purchase: failed to get balance for %s: %w", userID, err)
	}
	if balance.Amount(currency).LessThan(total) {
		return ShopValidation{Item: item, TotalPrice: total, Code: insufficientCode(currency)}, nil
	}

	return ShopValidation{Valid: true, Item: item, TotalPrice: total}, nil
}

// ProcessShopPurchase debits the user, credits the item and records the
// purchase in one transaction while holding the user's lock. totalPrice must
// match the price of the item currently in the shop. Cache stock is only
// decremented after the transaction commits.
func (s *shopService) ProcessShopPurchase(ctx context.Context, userID string, item market.ShopItem, quantity int, totalPrice decimal.Decimal, currency domain.Currency) (ShopPurchaseResult, error) {
	result := ShopPurchaseResult{Item: item, Quantity: quantity, TotalPrice: totalPrice, Currency: currency}
	if quantity < 1 || totalPrice.IsNegative() {
		result.Code = util.CodeInvalidInput
		return result, nil
	}
	kind := market.KindFor(currency)

	return lock.Do(ctx, s.locks, userID, func(ctx context.Context) (ShopPurchaseResult, error) {
		current, ok := s.cache.FindItem(userID, kind, item.Name)
		if !ok || current.Stock < quantity {
			result.Code = util.CodeInsufficientStock
			return result, nil
		}
		if !current.Price(currency, quantity, s.coinsPerGem).Equal(totalPrice) {
			result.Code = util.CodeInvalidInput
			return result, nil
		}

		var r rejection
		err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
			res, err := Deduct(ctx, tx.Balances(), userID, currency, totalPrice)
			if err != nil {
				return err
			}
			if !res.Success {
				if res.Code == util.CodeInsufficientFunds {
					return r.reject(insufficientCode(currency))
				}
				return r.reject(res.Code)
			}
			result.RemainingBalance = res.Balance.Amount(currency)

			if err := tx.Inventory().AddItem(ctx, userID, item.Name, item.Rarity, int64(quantity)); err != nil {
				return fmt.Errorf("failed to credit item: %w", err)
			}

			coins, gems := decimal.Zero, decimal.Zero
			if currency == domain.CurrencyGems {
				gems = totalPrice
			} else {
				coins = totalPrice
			}
			entry := domain.NewLedgerEntry(domain.LedgerKindShopPurchase, userID, nil, item.Name, int64(quantity), coins, gems)
			if err := tx.Ledger().RecordEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to record ledger entry: %w", err)
			}
			return nil
		})
		code, err := r.settle(err)
		if err != nil {
			s.logger.Error("shop purchase failed", "user_id", userID, "item", item.Name, "error", err)
			return ShopPurchaseResult{}, fmt.Errorf("process shop purchase: %w", err)
		}
		if !code.OK() {
			result.Code = code
			return result, nil
		}

		s.cache.UpdateStock(userID, kind, item.Name, quantity)
		s.logger.Info("shop purchase completed",
			"user_id", userID,
			"item", item.Name,
			"quantity", quantity,
			"currency", currency,
			"total_price", totalPrice.String(),
		)
		return result, nil
	})
}

// Purchase validates and processes a purchase from the user's current shop.
func (s *shopService) Purchase(ctx context.Context, userID string, kind market.Kind, itemIndex, quantity int) (ShopPurchaseResult, error) {
	shop := s.GetShop(ctx, userID, kind)
	currency := kind.Currency()

	v, err := s.ValidateShopPurchase(ctx, userID, itemIndex, quantity, shop, currency)
	if err != nil {
		return ShopPurchaseResult{}, err
	}
	if !v.Valid {
		return ShopPurchaseResult{Item: v.Item, Quantity: quantity, TotalPrice: v.TotalPrice, Currency: currency, Code: v.Code}, nil
	}
	return s.ProcessShopPurchase(ctx, userID, v.Item, quantity, v.TotalPrice, currency)
}

func insufficientCode(currency domain.Currency) util.Code {
	if currency == domain.CurrencyGems {
		return util.CodeInsufficientGems
	}
	return util.CodeInsufficientCoins
}
