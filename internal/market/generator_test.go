// internal/market/generator_test.go
package market

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func defaultGenerator(seed uint64) *Generator {
	return NewGenerator(GeneratorConfig{MinItems: 5, MaxItemsLow: 8, MaxItemsHigh: 10, Boost: 1}, DefaultRarityTable(), seeded(seed), nil)
}

func TestGenerator_Properties(t *testing.T) {
	gen := defaultGenerator(42)
	table := gen.Table()
	pool := DefaultCatalog().Available()

	for run := 0; run < 10_000; run++ {
		items := gen.Generate("user-1", pool)

		require.GreaterOrEqual(t, len(items), 5, "run %d", run)
		require.LessOrEqual(t, len(items), 10, "run %d", run)

		var high, ultra bool
		names := make(map[string]bool, len(items))
		for _, it := range items {
			require.False(t, names[it.Name], "run %d: duplicate %s", run, it.Name)
			names[it.Name] = true

			tier := table[it.Rarity]
			require.GreaterOrEqual(t, it.Stock, tier.MinStock)
			require.LessOrEqual(t, it.Stock, tier.MaxStock)

			high = high || table.IsHigh(it.Rarity)
			ultra = ultra || table.IsUltra(it.Rarity)
		}
		require.True(t, high, "run %d: no high rarity item", run)
		require.True(t, ultra, "run %d: no ultra rarity item", run)
	}
}

func TestGenerator_NoDuplicatesWithRepeatedPoolEntries(t *testing.T) {
	gen := defaultGenerator(7)
	pool := DefaultCatalog().Available()
	pool = append(pool, pool...)

	for run := 0; run < 1_000; run++ {
		seen := map[string]bool{}
		for _, it := range gen.Generate("user-1", pool) {
			assert.False(t, seen[it.Name], "run %d: duplicate %s", run, it.Name)
			seen[it.Name] = true
		}
	}
}

func TestGenerator_EdgeCases(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		gen := defaultGenerator(1)
		items := gen.Generate("user-1", nil)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("pool smaller than minimum", func(t *testing.T) {
		gen := defaultGenerator(1)
		pool := []CatalogItem{
			{Name: "a", BasePrice: 10, Rarity: RarityCommon},
			{Name: "b", BasePrice: 10, Rarity: RarityCommon},
			{Name: "c", BasePrice: 10, Rarity: RarityRare},
		}
		for run := 0; run < 100; run++ {
			items := gen.Generate("user-1", pool)
			require.Len(t, items, 3)
			got := map[string]bool{}
			for _, it := range items {
				got[it.Name] = true
			}
			assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, got)
		}
	})

	t.Run("unknown rarity and unavailable items are ignored", func(t *testing.T) {
		gen := defaultGenerator(1)
		pool := []CatalogItem{
			{Name: "mystery", BasePrice: 10, Rarity: "NOPE"},
			{Name: "retired", BasePrice: 10, Rarity: RarityCommon, Unavailable: true},
			{Name: "a", BasePrice: 10, Rarity: RarityCommon},
		}
		items := gen.Generate("user-1", pool)
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].Name)
	})

	t.Run("single item shop still gets a high rarity slot", func(t *testing.T) {
		gen := NewGenerator(GeneratorConfig{MinItems: 1, MaxItemsLow: 1, MaxItemsHigh: 1}, DefaultRarityTable(), seeded(3), nil)
		pool := []CatalogItem{
			{Name: "a", BasePrice: 10, Rarity: RarityCommon},
			{Name: "b", BasePrice: 10, Rarity: RarityCommon},
			{Name: "legend", BasePrice: 10, Rarity: RarityLegendary},
		}
		for run := 0; run < 100; run++ {
			items := gen.Generate("user-1", pool)
			require.Len(t, items, 1)
			assert.Equal(t, "legend", items[0].Name)
		}
	})
}

func TestGenerator_Boost(t *testing.T) {
	var pool []CatalogItem
	for i := 0; i < 4; i++ {
		pool = append(pool, CatalogItem{Name: fmt.Sprintf("legend-%d", i), BasePrice: 100, Rarity: RarityLegendary})
	}
	cfg := GeneratorConfig{MinItems: 0, MaxItemsLow: 10, MaxItemsHigh: 10}

	t.Run("boosted chance reaches certainty", func(t *testing.T) {
		cfg := cfg
		cfg.Boost = 100
		gen := NewGenerator(cfg, DefaultRarityTable(), seeded(9), nil)
		for run := 0; run < 200; run++ {
			assert.Len(t, gen.Generate("user-1", pool), 4)
		}
	})

	t.Run("unboosted rolls rarely take everything", func(t *testing.T) {
		gen := NewGenerator(cfg, DefaultRarityTable(), seeded(9), nil)
		full := 0
		for run := 0; run < 200; run++ {
			if len(gen.Generate("user-1", pool)) == 4 {
				full++
			}
		}
		assert.Less(t, full, 10)
	})
}

func TestGenerator_Deterministic(t *testing.T) {
	pool := DefaultCatalog().Available()
	a := defaultGenerator(1234)
	b := defaultGenerator(1234)
	for run := 0; run < 50; run++ {
		assert.Equal(t, a.Generate("user-1", pool), b.Generate("user-2", pool))
	}
}
