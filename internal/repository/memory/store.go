// internal/repository/memory/store.go
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
)

// FaultFunc is consulted before every write with the operation name
// (e.g. "inventory.add"); a non-nil result fails that write.
type FaultFunc func(op string) error

type state struct {
	balances  map[string]domain.Balance
	inventory map[string]map[string]domain.InventoryItem
	listings  map[uuid.UUID]domain.Listing
	ledger    []domain.LedgerEntry
}

func newState() *state {
	return &state{
		balances:  make(map[string]domain.Balance),
		inventory: make(map[string]map[string]domain.InventoryItem),
		listings:  make(map[uuid.UUID]domain.Listing),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for user, items := range s.inventory {
		m := make(map[string]domain.InventoryItem, len(items))
		for k, v := range items {
			m[k] = v
		}
		c.inventory[user] = m
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	c.ledger = append([]domain.LedgerEntry(nil), s.ledger...)
	return c
}

// Store is an in-process repository.Store. Transactions run against a copy
// of the state that replaces the original only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	st    *state
	fault FaultFunc
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// InjectFault installs f; pass nil to clear it.
func (s *Store) InjectFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// view binds repositories either to the live state (autocommit, locking per
// call) or to a transaction's private copy (already under the store mutex).
type view struct {
	store *Store
	tx    *state
}

func (v *view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v *view) write(op string, fn func(st *state) error) error {
	return v.do(func(st *state) error {
		if f := v.store.fault; f != nil {
			if err := f(op); err != nil {
				return err
			}
		}
		return fn(st)
	})
}

func (v *view) Balances() repository.BalanceRepository    { return &balanceRepo{v} }
func (v *view) Inventory() repository.InventoryRepository { return &inventoryRepo{v} }
func (v *view) Listings() repository.ListingRepository    { return &listingRepo{v} }
func (v *view) Ledger() repository.LedgerRepository       { return &ledgerRepo{v} }

func (s *Store) live() *view { return &view{store: s} }

func (s *Store) Balances() repository.BalanceRepository    { return s.live().Balances() }
func (s *Store) Inventory() repository.InventoryRepository { return s.live().Inventory() }
func (s *Store) Listings() repository.ListingRepository    { return s.live().Listings() }
func (s *Store) Ledger() repository.LedgerRepository       { return s.live().Ledger() }

// WithTx runs fn against a private copy of the state and publishes it only
// if fn returns nil. Transactions are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&view{store: s, tx: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}
