// internal/market/cache.go
package market

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fumo-economy/internal/domain"
)

// Kind selects which personal shop a user is looking at.
type Kind string

const (
	KindCoins Kind = "coins"
	KindGems  Kind = "gems"
)

// ParseKind validates a shop kind. An empty string means the coin shop.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindCoins:
		return KindCoins, nil
	case KindGems:
		return KindGems, nil
	}
	return "", fmt.Errorf("unknown shop kind %q", s)
}

// Currency returns the currency the shop is priced in.
func (k Kind) Currency() domain.Currency {
	if k == KindGems {
		return domain.CurrencyGems
	}
	return domain.CurrencyCoins
}

// Entry is one user's generated shop.
type Entry struct {
	UserID    string     `json:"user_id"`
	Kind      Kind       `json:"kind"`
	Items     []ShopItem `json:"items"`
	ResetTime time.Time  `json:"reset_time"`
}

func (e *Entry) clone() Entry {
	cp := *e
	cp.Items = append([]ShopItem(nil), e.Items...)
	return cp
}

type cacheKey struct {
	userID string
	kind   Kind
}

func (k cacheKey) String() string {
	return k.userID + ":" + string(k.kind)
}

// NextReset returns the first interval boundary strictly after now.
func NextReset(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

// Cache holds generated shops until their aligned reset time.
type Cache struct {
	gen      *Generator
	pool     func() []CatalogItem
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]*Entry
	group   singleflight.Group
}

// NewCache creates a Cache. pool is called on every regeneration so catalog
// changes show up at the next reset.
func NewCache(gen *Generator, pool func() []CatalogItem, interval time.Duration, logger *slog.Logger) *Cache {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		gen:      gen,
		pool:     pool,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[cacheKey]*Entry),
	}
}

// SetClock overrides the time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Interval returns the reset interval.
func (c *Cache) Interval() time.Duration {
	return c.interval
}

// Table returns the rarity table shops are rolled with.
func (c *Cache) Table() RarityTable {
	return c.gen.Table()
}

// Get returns the user's shop, generating a new one when none exists or the
// current one is past its reset time.
func (c *Cache) Get(userID string, kind Kind) Entry {
	key := cacheKey{userID: userID, kind: kind}
	now := c.now()
	if e, ok := c.fresh(key, now); ok {
		return e
	}

	v, _, _ := c.group.Do(key.String(), func() (any, error) {
		if e, ok := c.fresh(key, now); ok {
			return e, nil
		}
		e := &Entry{
			UserID:    userID,
			Kind:      kind,
			Items:     c.gen.Generate(userID, c.pool()),
			ResetTime: NextReset(now, c.interval),
		}
		c.mu.Lock()
		c.entries[key] = e
		cp := e.clone()
		c.mu.Unlock()
		return cp, nil
	})
	e := v.(Entry)
	return e.clone()
}

func (c *Cache) fresh(key cacheKey, now time.Time) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.ResetTime) {
		return Entry{}, false
	}
	return e.clone(), true
}

// FindItem returns the current state of itemName in the user's cached shop.
// An expired shop has no items.
func (c *Cache) FindItem(userID string, kind Kind, itemName string) (ShopItem, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{userID: userID, kind: kind}]
	if !ok || !now.Before(e.ResetTime) {
		return ShopItem{}, false
	}
	for _, it := range e.Items {
		if it.Name == itemName {
			return it, true
		}
	}
	return ShopItem{}, false
}

// UpdateStock decrements the stock of itemName by quantity and drops the item
// once it is sold out. It reports whether the item was found.
func (c *Cache) UpdateStock(userID string, kind Kind, itemName string, quantity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{userID: userID, kind: kind}]
	if !ok {
		return false
	}
	for i := range e.Items {
		if e.Items[i].Name != itemName {
			continue
		}
		e.Items[i].Stock -= quantity
		if e.Items[i].Stock <= 0 {
			e.Items = append(e.Items[:i], e.Items[i+1:]...)
		}
		return true
	}
	return false
}

// RegenerateAll rebuilds every cached shop for the boundary following now.
func (c *Cache) RegenerateAll(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	reset := NextReset(now, c.interval)
	pool := c.pool()
	for key, e := range c.entries {
		c.entries[key] = &Entry{
			UserID:    e.UserID,
			Kind:      e.Kind,
			Items:     c.gen.Generate(key.userID, pool),
			ResetTime: reset,
		}
	}
	n := len(c.entries)
	c.logger.Info("markets regenerated", "count", n, "reset_time", reset)
	return n
}

// Forget drops every cached shop of userID.
func (c *Cache) Forget(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.userID == userID {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached shops.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// KindFor returns the shop kind priced in currency.
func KindFor(currency domain.Currency) Kind {
	if currency == domain.CurrencyGems {
		return KindGems
	}
	return KindCoins
}
