// internal/market/generator.go
package market

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// GeneratorConfig bounds the size of generated shops.
type GeneratorConfig struct {
	MinItems     int
	MaxItemsLow  int
	MaxItemsHigh int
	// Boost multiplies the chance of high-rarity tiers. Values below 1 are
	// treated as 1.
	Boost float64
}

// Generator builds per-user shops from a candidate pool.
type Generator struct {
	cfg    GeneratorConfig
	table  RarityTable
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng is replaced by a time-seeded one.
func NewGenerator(cfg GeneratorConfig, table RarityTable, rng *rand.Rand, logger *slog.Logger) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxItemsHigh < cfg.MaxItemsLow {
		cfg.MaxItemsHigh = cfg.MaxItemsLow
	}
	if cfg.Boost < 1 {
		cfg.Boost = 1
	}
	return &Generator{cfg: cfg, table: table, rng: rng, logger: logger}
}

// Table returns the rarity table the generator rolls against.
func (g *Generator) Table() RarityTable {
	return g.table
}

// Generate rolls a new shop for userID. Candidates whose rarity is not in the
// table are ignored.
func (g *Generator) Generate(userID string, pool []CatalogItem) []ShopItem {
	g.mu.Lock()
	defer g.mu.Unlock()

	candidates := g.candidates(pool)
	if len(candidates) == 0 {
		return []ShopItem{}
	}

	used := make(map[string]bool, len(candidates))
	selected := make([]ShopItem, 0, len(candidates))

	for _, c := range candidates {
		if g.rng.Float64() < g.chance(c.Rarity) {
			selected = append(selected, g.stock(c))
			used[c.Name] = true
		}
	}

	// fill to minimum
	if len(selected) < g.cfg.MinItems {
		rest := unused(candidates, used)
		for len(selected) < g.cfg.MinItems && len(rest) > 0 {
			i := g.rng.IntN(len(rest))
			c := rest[i]
			rest[i] = rest[len(rest)-1]
			rest = rest[:len(rest)-1]
			selected = append(selected, g.stock(c))
			used[c.Name] = true
		}
	}

	// trim to maximum
	limit := g.cfg.MaxItemsLow + g.rng.IntN(g.cfg.MaxItemsHigh-g.cfg.MaxItemsLow+1)
	if len(selected) > limit {
		for _, it := range selected[limit:] {
			delete(used, it.Name)
		}
		selected = selected[:limit]
	}

	if !g.contains(selected, g.table.IsHigh) {
		if c, ok := g.pick(candidates, used, g.table.IsHigh); ok {
			selected = g.replace(selected, 0, c, used)
		}
	}
	if len(selected) >= 2 && !g.contains(selected, g.table.IsUltra) {
		if c, ok := g.pick(candidates, used, g.table.IsUltra); ok {
			selected = g.replace(selected, 1, c, used)
		}
	}

	g.logger.Debug("market generated", "user_id", userID, "items", len(selected))
	return selected
}

func (g *Generator) candidates(pool []CatalogItem) []CatalogItem {
	seen := make(map[string]bool, len(pool))
	out := make([]CatalogItem, 0, len(pool))
	for _, c := range pool {
		if _, ok := g.table[c.Rarity]; !ok || c.Unavailable || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

func (g *Generator) chance(rarity string) float64 {
	p := g.table[rarity].Chance
	if g.table.IsHigh(rarity) {
		p *= g.cfg.Boost
	}
	return min(p, 1)
}

func (g *Generator) stock(c CatalogItem) ShopItem {
	tier := g.table[c.Rarity]
	n := tier.MinStock
	if tier.MaxStock > tier.MinStock {
		n += g.rng.IntN(tier.MaxStock - tier.MinStock + 1)
	}
	return ShopItem{
		Name:      c.Name,
		BasePrice: c.BasePrice,
		Rarity:    c.Rarity,
		Stock:     max(n, 1),
		Picture:   c.Picture,
	}
}

func (g *Generator) contains(items []ShopItem, match func(string) bool) bool {
	for _, it := range items {
		if match(it.Rarity) {
			return true
		}
	}
	return false
}

func (g *Generator) pick(candidates []CatalogItem, used map[string]bool, match func(string) bool) (CatalogItem, bool) {
	var eligible []CatalogItem
	for _, c := range candidates {
		if !used[c.Name] && match(c.Rarity) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return CatalogItem{}, false
	}
	return eligible[g.rng.IntN(len(eligible))], true
}

// replace puts c into slot i, appending when the slot does not exist yet.
func (g *Generator) replace(selected []ShopItem, i int, c CatalogItem, used map[string]bool) []ShopItem {
	item := g.stock(c)
	used[c.Name] = true
	if i >= len(selected) {
		return append(selected, item)
	}
	delete(used, selected[i].Name)
	selected[i] = item
	return selected
}

func unused(candidates []CatalogItem, used map[string]bool) []CatalogItem {
	out := make([]CatalogItem, 0, len(candidates))
	for _, c := range candidates {
		if !used[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
