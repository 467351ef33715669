// internal/repository/memory/repos.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/util"
)

type balanceRepo struct{ v *view }

func (r *balanceRepo) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	var out *domain.Balance
	err := r.v.do(func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return util.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *balanceRepo) CreateBalance(ctx context.Context, balance *domain.Balance) error {
	return r.v.write("balances.create", func(st *state) error {
		if _, ok := st.balances[balance.UserID]; ok {
			return util.ErrDuplicateEntry
		}
		st.balances[balance.UserID] = *balance
		return nil
	})
}

func (r *balanceRepo) AdjustBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error {
	return r.v.write("balances.adjust", func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return util.ErrNotFound
		}
		b.Coins = b.Coins.Add(coins)
		b.Gems = b.Gems.Add(gems)
		if b.Coins.IsNegative() || b.Gems.IsNegative() {
			return fmt.Errorf("balance check constraint violated for user %s", userID)
		}
		b.UpdatedAt = time.Now().UTC()
		st.balances[userID] = b
		return nil
	})
}

func (r *balanceRepo) CreditBalance(ctx context.Context, userID string, coins, gems decimal.Decimal) error {
	return r.v.write("balances.credit", func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			b = *domain.NewBalance(userID, decimal.Zero, decimal.Zero)
		}
		b.Coins = b.Coins.Add(coins)
		b.Gems = b.Gems.Add(gems)
		b.UpdatedAt = time.Now().UTC()
		st.balances[userID] = b
		return nil
	})
}

type inventoryRepo struct{ v *view }

func (r *inventoryRepo) AddItem(ctx context.Context, userID, itemName, rarity string, quantity int64) error {
	return r.v.write("inventory.add", func(st *state) error {
		items, ok := st.inventory[userID]
		if !ok {
			items = make(map[string]domain.InventoryItem)
			st.inventory[userID] = items
		}
		it, ok := items[itemName]
		if !ok {
			it = domain.InventoryItem{UserID: userID, ItemName: itemName, Rarity: rarity}
		}
		it.Quantity += quantity
		items[itemName] = it
		return nil
	})
}

func (r *inventoryRepo) RemoveItem(ctx context.Context, userID, itemName string, quantity int64) error {
	return r.v.write("inventory.remove", func(st *state) error {
		it, ok := st.inventory[userID][itemName]
		if !ok || it.Quantity < quantity {
			return util.ErrInsufficientItems
		}
		it.Quantity -= quantity
		if it.Quantity == 0 {
			delete(st.inventory[userID], itemName)
			return nil
		}
		st.inventory[userID][itemName] = it
		return nil
	})
}

func (r *inventoryRepo) GetItem(ctx context.Context, userID, itemName string) (*domain.InventoryItem, error) {
	var out *domain.InventoryItem
	err := r.v.do(func(st *state) error {
		it, ok := st.inventory[userID][itemName]
		if !ok {
			return util.ErrNotFound
		}
		out = &it
		return nil
	})
	return out, err
}

func (r *inventoryRepo) ListItems(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	out := []domain.InventoryItem{}
	err := r.v.do(func(st *state) error {
		for _, it := range st.inventory[userID] {
			out = append(out, it)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, err
}

type listingRepo struct{ v *view }

func (r *listingRepo) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return r.v.write("listings.create", func(st *state) error {
		if _, ok := st.listings[listing.ID]; ok {
			return util.ErrDuplicateEntry
		}
		st.listings[listing.ID] = *listing
		return nil
	})
}

func (r *listingRepo) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var out *domain.Listing
	err := r.v.do(func(st *state) error {
		l, ok := st.listings[id]
		if !ok {
			return util.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *listingRepo) ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int64, error) {
	var matched []domain.Listing
	err := r.v.do(func(st *state) error {
		for _, l := range st.listings {
			if filter.SellerID != "" && l.SellerID != filter.SellerID {
				continue
			}
			if filter.Rarity != "" && l.Rarity != filter.Rarity {
				continue
			}
			matched = append(matched, l)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ListedAt.Equal(matched[j].ListedAt) {
			return matched[i].ListedAt.After(matched[j].ListedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return page(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *listingRepo) CountBySeller(ctx context.Context, sellerID string) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for _, l := range st.listings {
			if l.SellerID == sellerID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *listingRepo) DeleteListing(ctx context.Context, id uuid.UUID) error {
	return r.v.write("listings.delete", func(st *state) error {
		if _, ok := st.listings[id]; !ok {
			return util.ErrNotFound
		}
		delete(st.listings, id)
		return nil
	})
}

type ledgerRepo struct{ v *view }

func (r *ledgerRepo) RecordEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.v.write("ledger.record", func(st *state) error {
		st.ledger = append(st.ledger, *entry)
		return nil
	})
}

func (r *ledgerRepo) ListEntriesByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	var matched []domain.LedgerEntry
	err := r.v.do(func(st *state) error {
		// newest first
		for i := len(st.ledger) - 1; i >= 0; i-- {
			e := st.ledger[i]
			if e.BuyerID == userID || (e.SellerID != nil && *e.SellerID == userID) {
				matched = append(matched, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func page[T any](all []T, limit, offset int) []T {
	out := []T{}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return out
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append(out, all[offset:end]...)
}
