// internal/service/account_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/lock"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// AccountConfig holds the starting balance of new accounts.
type AccountConfig struct {
	StartingCoins decimal.Decimal
	StartingGems  decimal.Decimal
}

// AccountService defines the interface for account-level operations.
type AccountService interface {
	CreateAccount(ctx context.Context, userID string) (*domain.Balance, error)
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
	GetInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)
	GetHistory(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error)
	Grant(ctx context.Context, userID string, coins, gems decimal.Decimal) (*domain.Balance, error)
}

// accountService implements the AccountService interface.
type accountService struct {
	store  repository.Store
	locks  *lock.Manager
	cfg    AccountConfig
	logger *slog.Logger
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(store repository.Store, locks *lock.Manager, cfg AccountConfig, logger *slog.Logger) AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{store: store, locks: locks, cfg: cfg, logger: logger}
}

// CreateAccount opens a balance with the configured starting funds.
func (s *accountService) CreateAccount(ctx context.Context, userID string) (*domain.Balance, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, util.ErrInvalidInput
	}

	balance := domain.NewBalance(userID, s.cfg.StartingCoins, s.cfg.StartingGems)
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Balances().CreateBalance(ctx, balance); err != nil {
			return err
		}
		if balance.Coins.IsZero() && balance.Gems.IsZero() {
			return nil
		}
		entry := domain.NewLedgerEntry(domain.LedgerKindGrant, userID, nil, "", 0, balance.Coins, balance.Gems)
		return tx.Ledger().RecordEntry(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("create account: failed to create balance for %s: %w", userID, err)
	}

	s.logger.Info("account created", "user_id", userID, "coins", balance.Coins.String(), "gems", balance.Gems.String())
	return balance, nil
}

func (s *accountService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	balance, err := s.store.Balances().GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to get balance for %s: %w", userID, err)
	}
	return balance, nil
}

func (s *accountService) GetInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	if _, err := s.GetBalance(ctx, userID); err != nil {
		return nil, err
	}
	items, err := s.store.Inventory().ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get inventory: failed to list items for %s: %w", userID, err)
	}
	return items, nil
}

// GetHistory retrieves a paginated list of ledger entries involving the user.
func (s *accountService) GetHistory(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	if _, err := s.GetBalance(ctx, userID); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.store.Ledger().ListEntriesByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get history: failed to retrieve ledger for %s: %w", userID, err)
	}
	return entries, total, nil
}

// Grant credits a reward to the user and returns the new balance.
func (s *accountService) Grant(ctx context.Context, userID string, coins, gems decimal.Decimal) (*domain.Balance, error) {
	if userID == "" || !validAmount(coins) || !validAmount(gems) {
		return nil, util.ErrInvalidInput
	}

	return lock.Do(ctx, s.locks, userID, func(ctx context.Context) (*domain.Balance, error) {
		var balance *domain.Balance
		err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
			if err := Credit(ctx, tx.Balances(), userID, coins, gems); err != nil {
				return err
			}
			entry := domain.NewLedgerEntry(domain.LedgerKindGrant, userID, nil, "", 0, coins, gems)
			if err := tx.Ledger().RecordEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to record ledger entry: %w", err)
			}
			var err error
			balance, err = tx.Balances().GetBalance(ctx, userID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("grant: %w", err)
		}

		s.logger.Info("currency granted", "user_id", userID, "coins", coins.String(), "gems", gems.String())
		return balance, nil
	})
}
