// internal/service/currency_ops.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// DeductResult describes the outcome of a deduction. Balance is the state
// after the deduction on success, or the state that caused the rejection.
type DeductResult struct {
	Success           bool
	Code              util.Code
	Balance           *domain.Balance
	InsufficientCoins bool
	InsufficientGems  bool
}

// validAmount reports whether d is a non-negative whole number of currency.
func validAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(0))
}

// The helpers below do not lock. Callers hold a lock keyed by userID and pass
// a repository bound to their transaction.

// DeductCoins removes amount coins from userID's balance if they have enough.
func DeductCoins(ctx context.Context, repo repository.BalanceRepository, userID string, amount decimal.Decimal) (DeductResult, error) {
	return DeductCurrency(ctx, repo, userID, amount, decimal.Zero)
}

// DeductGems removes amount gems from userID's balance if they have enough.
func DeductGems(ctx context.Context, repo repository.BalanceRepository, userID string, amount decimal.Decimal) (DeductResult, error) {
	return DeductCurrency(ctx, repo, userID, decimal.Zero, amount)
}

// Deduct removes amount of a single currency.
func Deduct(ctx context.Context, repo repository.BalanceRepository, userID string, currency domain.Currency, amount decimal.Decimal) (DeductResult, error) {
	if currency == domain.CurrencyGems {
		return DeductGems(ctx, repo, userID, amount)
	}
	return DeductCoins(ctx, repo, userID, amount)
}

// DeductCurrency removes coins and gems together; either both are debited or
// neither is.
func DeductCurrency(ctx context.Context, repo repository.BalanceRepository, userID string, coins, gems decimal.Decimal) (DeductResult, error) {
	if !validAmount(coins) || !validAmount(gems) {
		return DeductResult{Code: util.CodeInvalidInput}, nil
	}

	balance, err := repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return DeductResult{
				Code:              util.CodeNoAccount,
				Balance:           domain.NewBalance(userID, decimal.Zero, decimal.Zero),
				InsufficientCoins: coins.IsPositive(),
				InsufficientGems:  gems.IsPositive(),
			}, nil
		}
		return DeductResult{}, fmt.Errorf("deduct: failed to get balance for %s: %w", userID, err)
	}

	shortCoins := balance.Coins.LessThan(coins)
	shortGems := balance.Gems.LessThan(gems)
	if shortCoins || shortGems {
		return DeductResult{
			Code:              util.CodeInsufficientFunds,
			Balance:           balance,
			InsufficientCoins: shortCoins,
			InsufficientGems:  shortGems,
		}, nil
	}

	if coins.IsZero() && gems.IsZero() {
		return DeductResult{Success: true, Balance: balance}, nil
	}

	if err := repo.AdjustBalance(ctx, userID, coins.Neg(), gems.Neg()); err != nil {
		return DeductResult{}, fmt.Errorf("deduct: failed to update balance for %s: %w", userID, err)
	}

	balance.Coins = balance.Coins.Sub(coins)
	balance.Gems = balance.Gems.Sub(gems)
	return DeductResult{Success: true, Balance: balance}, nil
}

// Credit unconditionally adds coins and gems, creating the balance row when
// the user has none.
func Credit(ctx context.Context, repo repository.BalanceRepository, userID string, coins, gems decimal.Decimal) error {
	if !validAmount(coins) || !validAmount(gems) {
		return util.ErrInvalidInput
	}
	if coins.IsZero() && gems.IsZero() {
		return nil
	}
	if err := repo.CreditBalance(ctx, userID, coins, gems); err != nil {
		return fmt.Errorf("credit: failed to credit %s: %w", userID, err)
	}
	return nil
}

// shortfallCode picks the most specific rejection code for a failed deduction.
func shortfallCode(res DeductResult) util.Code {
	switch {
	case res.Code != util.CodeInsufficientFunds:
		return res.Code
	case res.InsufficientCoins && res.InsufficientGems:
		return util.CodeInsufficientFunds
	case res.InsufficientCoins:
		return util.CodeInsufficientCoins
	case res.InsufficientGems:
		return util.CodeInsufficientGems
	}
	return res.Code
}
