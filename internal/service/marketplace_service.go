// internal/service/marketplace_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/lock"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

const (
	defaultListingPageSize = 20
	maxListingPageSize     = 100
)

// MarketplaceConfig holds the tunables of the global marketplace.
type MarketplaceConfig struct {
	TaxRate            decimal.Decimal
	MaxListingsPerUser int
}

// ListingResult is the outcome of creating or removing a listing.
type ListingResult struct {
	Listing *domain.Listing `json:"listing,omitempty"`
	Code    util.Code       `json:"code,omitempty"`
}

// GlobalValidation is the result of the lock-free pre-check of a listing purchase.
type GlobalValidation struct {
	Valid        bool            `json:"valid"`
	CurrentCoins decimal.Decimal `json:"current_coins"`
	CurrentGems  decimal.Decimal `json:"current_gems"`
	Code         util.Code       `json:"code,omitempty"`
}

// GlobalPurchaseResult is the outcome of a processed listing purchase.
type GlobalPurchaseResult struct {
	Listing             *domain.Listing `json:"listing,omitempty"`
	RemainingCoins      decimal.Decimal `json:"remaining_coins"`
	RemainingGems       decimal.Decimal `json:"remaining_gems"`
	SellerReceivesCoins decimal.Decimal `json:"seller_receives_coins"`
	SellerReceivesGems  decimal.Decimal `json:"seller_receives_gems"`
	TaxCoins            decimal.Decimal `json:"tax_coins"`
	TaxGems             decimal.Decimal `json:"tax_gems"`
	Code                util.Code       `json:"code,omitempty"`
}

// MarketplaceService defines the interface for the player-to-player marketplace.
type MarketplaceService interface {
	CreateListing(ctx context.Context, sellerID, itemName string, coinPrice, gemPrice decimal.Decimal) (ListingResult, error)
	GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int64, error)
	RemoveListing(ctx context.Context, sellerID string, id uuid.UUID) (ListingResult, error)
	ValidateGlobalPurchase(ctx context.Context, buyerID string, listing *domain.Listing) (GlobalValidation, error)
	ProcessGlobalPurchase(ctx context.Context, buyerID string, listing *domain.Listing) (GlobalPurchaseResult, error)
	Purchase(ctx context.Context, buyerID string, id uuid.UUID) (GlobalPurchaseResult, error)
}

// marketplaceService implements the MarketplaceService interface.
type marketplaceService struct {
	store  repository.Store
	locks  *lock.Manager
	cfg    MarketplaceConfig
	logger *slog.Logger
}

// NewMarketplaceService creates a new instance of MarketplaceService.
func NewMarketplaceService(store repository.Store, locks *lock.Manager, cfg MarketplaceConfig, logger *slog.Logger) MarketplaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &marketplaceService{store: store, locks: locks, cfg: cfg, logger: logger}
}

func inventoryKey(userID string) string {
	return lock.Key(userID, "inventory")
}

func validPrice(p decimal.Decimal) bool {
	return p.IsPositive() && validAmount(p)
}

// CreateListing moves one instance of itemName out of the seller's inventory
// into a new listing.
func (s *marketplaceService) CreateListing(ctx context.Context, sellerID, itemName string, coinPrice, gemPrice decimal.Decimal) (ListingResult, error) {
	itemName = strings.TrimSpace(itemName)
	if sellerID == "" || itemName == "" {
		return ListingResult{Code: util.CodeInvalidInput}, nil
	}
	if !validPrice(coinPrice) || !validPrice(gemPrice) {
		return ListingResult{Code: util.CodeInvalidPrice}, nil
	}

	return lock.Do(ctx, s.locks, inventoryKey(sellerID), func(ctx context.Context) (ListingResult, error) {
		var (
			r       rejection
			listing *domain.Listing
		)
		err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
			count, err := tx.Listings().CountBySeller(ctx, sellerID)
			if err != nil {
				return fmt.Errorf("failed to count listings: %w", err)
			}
			if s.cfg.MaxListingsPerUser > 0 && count >= int64(s.cfg.MaxListingsPerUser) {
				return r.reject(util.CodeListingLimitReached)
			}

			item, err := tx.Inventory().GetItem(ctx, sellerID, itemName)
			if err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return r.reject(util.CodeItemNotOwned)
				}
				return fmt.Errorf("failed to get inventory item: %w", err)
			}
			if err := tx.Inventory().RemoveItem(ctx, sellerID, itemName, 1); err != nil {
				if errors.Is(err, util.ErrInsufficientItems) {
					return r.reject(util.CodeItemNotOwned)
				}
				return fmt.Errorf("failed to remove item: %w", err)
			}

			listing = domain.NewListing(sellerID, itemName, item.Rarity, coinPrice, gemPrice)
			if err := tx.Listings().CreateListing(ctx, listing); err != nil {
				return fmt.Errorf("failed to create listing: %w", err)
			}
			entry := domain.NewLedgerEntry(domain.LedgerKindListingCreated, sellerID, &sellerID, itemName, 1, coinPrice, gemPrice)
			if err := tx.Ledger().RecordEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to record ledger entry: %w", err)
			}
			return nil
		})
		code, err := r.settle(err)
		if err != nil {
			return ListingResult{}, fmt.Errorf("create listing: %w", err)
		}
		if !code.OK() {
			return ListingResult{Code: code}, nil
		}

		s.logger.Info("listing created", "listing_id", listing.ID, "seller_id", sellerID, "item", itemName)
		return ListingResult{Listing: listing}, nil
	})
}

func (s *marketplaceService) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	listing, err := s.store.Listings().GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: failed to get listing %s: %w", id, err)
	}
	return listing, nil
}

// ListListings returns a page of listings and the total number matching filter.
func (s *marketplaceService) ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListingPageSize
	}
	filter.Limit = min(filter.Limit, maxListingPageSize)
	filter.Offset = max(filter.Offset, 0)

	listings, total, err := s.store.Listings().ListListings(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	return listings, total, nil
}

// RemoveListing cancels a listing and returns the item to its seller.
func (s *marketplaceService) RemoveListing(ctx context.Context, sellerID string, id uuid.UUID) (ListingResult, error) {
	if sellerID == "" {
		return ListingResult{Code: util.CodeInvalidInput}, nil
	}

	return lock.Do(ctx, s.locks, inventoryKey(sellerID), func(ctx context.Context) (ListingResult, error) {
		var (
			r       rejection
			listing *domain.Listing
		)
		err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
			var err error
			listing, err = tx.Listings().GetListing(ctx, id)
			if err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return r.reject(util.CodeNotFound)
				}
				return fmt.Errorf("failed to get listing: %w", err)
			}
			if listing.SellerID != sellerID {
				return r.reject(util.CodeNotListingOwner)
			}

			if err := tx.Listings().DeleteListing(ctx, id); err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return r.reject(util.CodeNotFound)
				}
				return fmt.Errorf("failed to delete listing: %w", err)
			}
			if err := tx.Inventory().AddItem(ctx, sellerID, listing.ItemName, listing.Rarity, 1); err != nil {
				return fmt.Errorf("failed to return item: %w", err)
			}
			entry := domain.NewLedgerEntry(domain.LedgerKindListingRemoved, sellerID, &sellerID, listing.ItemName, 1, decimal.Zero, decimal.Zero)
			if err := tx.Ledger().RecordEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to record ledger entry: %w", err)
			}
			return nil
		})
		code, err := r.settle(err)
		if err != nil {
			return ListingResult{}, fmt.Errorf("remove listing: %w", err)
		}
		if !code.OK() {
			return ListingResult{Code: code}, nil
		}

		s.logger.Info("listing removed", "listing_id", id, "seller_id", sellerID)
		return ListingResult{Listing: listing}, nil
	})
}

// ValidateGlobalPurchase is a lock-free pre-check of a listing purchase.
func (s *marketplaceService) ValidateGlobalPurchase(ctx context.Context, buyerID string, listing *domain.Listing) (GlobalValidation, error) {
	if listing == nil {
		return GlobalValidation{Code: util.CodeListingUnavailable}, nil
	}
	if buyerID == "" {
		return GlobalValidation{Code: util.CodeInvalidInput}, nil
	}
	if buyerID == listing.SellerID {
		return GlobalValidation{Code: util.CodeSelfTradeDenied}, nil
	}

	balance, err := s.store.Balances().GetBalance(ctx, buyerID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return GlobalValidation{CurrentCoins: decimal.Zero, CurrentGems: decimal.Zero, Code: util.CodeNoAccount}, nil
		}
		return GlobalValidation{}, fmt.Errorf("validate global purchase: failed to get balance for %s: %w", buyerID, err)
	}

	v := GlobalValidation{CurrentCoins: balance.Coins, CurrentGems: balance.Gems}
	shortCoins := balance.Coins.LessThan(listing.CoinPrice)
	shortGems := balance.Gems.LessThan(listing.GemPrice)
	if shortCoins || shortGems {
		v.Code = shortfallCode(DeductResult{Code: util.CodeInsufficientFunds, InsufficientCoins: shortCoins, InsufficientGems: shortGems})
		return v, nil
	}
	v.Valid = true
	return v, nil
}

// ProcessGlobalPurchase settles a listing purchase while holding the buyer's
// lock: the buyer is debited both prices, the seller is credited the prices
// minus tax, the item moves to the buyer and the listing is deleted, all in
// one transaction.
func (s *marketplaceService) ProcessGlobalPurchase(ctx context.Context, buyerID string, listing *domain.Listing) (GlobalPurchaseResult, error) {
	if listing == nil {
		return GlobalPurchaseResult{Code: util.CodeListingUnavailable}, nil
	}
	if buyerID == listing.SellerID {
		return GlobalPurchaseResult{Code: util.CodeSelfTradeDenied}, nil
	}

	return lock.Do(ctx, s.locks, buyerID, func(ctx context.Context) (GlobalPurchaseResult, error) {
		var (
			r      rejection
			result GlobalPurchaseResult
		)
		err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
			current, err := tx.Listings().GetListing(ctx, listing.ID)
			if err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return r.reject(util.CodeListingUnavailable)
				}
				return fmt.Errorf("failed to re-fetch listing: %w", err)
			}
			if current.SellerID == buyerID {
				return r.reject(util.CodeSelfTradeDenied)
			}

			res, err := DeductCurrency(ctx, tx.Balances(), buyerID, current.CoinPrice, current.GemPrice)
			if err != nil {
				return err
			}
			if !res.Success {
				return r.reject(shortfallCode(res))
			}

			taxCoins := s.tax(current.CoinPrice)
			taxGems := s.tax(current.GemPrice)
			sellerCoins := current.CoinPrice.Sub(taxCoins)
			sellerGems := current.GemPrice.Sub(taxGems)
			if err := Credit(ctx, tx.Balances(), current.SellerID, sellerCoins, sellerGems); err != nil {
				return err
			}

			if err := tx.Inventory().AddItem(ctx, buyerID, current.ItemName, current.Rarity, 1); err != nil {
				return fmt.Errorf("failed to credit item: %w", err)
			}
			if err := tx.Listings().DeleteListing(ctx, current.ID); err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return r.reject(util.CodeListingUnavailable)
				}
				return fmt.Errorf("failed to delete listing: %w", err)
			}

			entry := domain.NewLedgerEntry(domain.LedgerKindMarketSale, buyerID, &current.SellerID, current.ItemName, 1, current.CoinPrice, current.GemPrice)
			entry.TaxCoins = taxCoins
			entry.TaxGems = taxGems
			if err := tx.Ledger().RecordEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to record ledger entry: %w", err)
			}

			result = GlobalPurchaseResult{
				Listing:             current,
				RemainingCoins:      res.Balance.Coins,
				RemainingGems:       res.Balance.Gems,
				SellerReceivesCoins: sellerCoins,
				SellerReceivesGems:  sellerGems,
				TaxCoins:            taxCoins,
				TaxGems:             taxGems,
			}
			return nil
		})
		code, err := r.settle(err)
		if err != nil {
			s.logger.Error("marketplace purchase failed", "buyer_id", buyerID, "listing_id", listing.ID, "error", err)
			return GlobalPurchaseResult{}, fmt.Errorf("process global purchase: %w", err)
		}
		if !code.OK() {
			return GlobalPurchaseResult{Code: code}, nil
		}

		s.logger.Info("marketplace purchase completed",
			"buyer_id", buyerID,
			"seller_id", result.Listing.SellerID,
			"listing_id", result.Listing.ID,
			"item", result.Listing.ItemName,
			"tax_coins", result.TaxCoins.String(),
			"tax_gems", result.TaxGems.String(),
		)
		return result, nil
	})
}

// Purchase fetches, validates and processes a listing purchase.
func (s *marketplaceService) Purchase(ctx context.Context, buyerID string, id uuid.UUID) (GlobalPurchaseResult, error) {
	listing, err := s.store.Listings().GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return GlobalPurchaseResult{Code: util.CodeListingUnavailable}, nil
		}
		return GlobalPurchaseResult{}, fmt.Errorf("purchase listing: failed to get listing %s: %w", id, err)
	}

	v, err := s.ValidateGlobalPurchase(ctx, buyerID, listing)
	if err != nil {
		return GlobalPurchaseResult{}, err
	}
	if !v.Valid {
		return GlobalPurchaseResult{Listing: listing, RemainingCoins: v.CurrentCoins, RemainingGems: v.CurrentGems, Code: v.Code}, nil
	}
	return s.ProcessGlobalPurchase(ctx, buyerID, listing)
}

// tax is floor(price * rate), so small prices may carry no tax.
func (s *marketplaceService) tax(price decimal.Decimal) decimal.Decimal {
	return price.Mul(s.cfg.TaxRate).Floor()
}
