// internal/market/rarity.go
package market

// Tier describes one rarity bucket: the independent chance that a candidate
// of this rarity makes it into a generated shop and the stock range it gets.
type Tier struct {
	Name     string
	Chance   float64
	MinStock int
	MaxStock int
	High     bool // counts toward the high-rarity guarantee
	Ultra    bool // counts toward the ultra-rarity guarantee; implies High
}

// RarityTable maps a rarity name to its tier.
type RarityTable map[string]Tier

// Rarity names, lowest to highest.
const (
	RarityCommon       = "Common"
	RarityUncommon     = "UNCOMMON"
	RarityRare         = "RARE"
	RarityEpic         = "EPIC"
	RarityOtherworldly = "OTHERWORLDLY"
	RarityLegendary    = "LEGENDARY"
	RarityMythical     = "MYTHICAL"
	RarityExclusive    = "EXCLUSIVE"
	RarityQuestion     = "???"
	RarityAstral       = "ASTRAL"
	RarityCelestial    = "CELESTIAL"
	RarityInfinite     = "INFINITE"
	RarityEternal      = "ETERNAL"
	RarityTranscendent = "TRANSCENDENT"
)

// DefaultRarityTable returns the standard tiers. LEGENDARY and above are
// high rarity; ??? and above are ultra rarity.
func DefaultRarityTable() RarityTable {
	tiers := []Tier{
		{Name: RarityCommon, Chance: 0.80, MinStock: 15, MaxStock: 30},
		{Name: RarityUncommon, Chance: 0.65, MinStock: 10, MaxStock: 20},
		{Name: RarityRare, Chance: 0.45, MinStock: 6, MaxStock: 12},
		{Name: RarityEpic, Chance: 0.30, MinStock: 4, MaxStock: 8},
		{Name: RarityOtherworldly, Chance: 0.18, MinStock: 3, MaxStock: 6},
		{Name: RarityLegendary, Chance: 0.10, MinStock: 2, MaxStock: 4, High: true},
		{Name: RarityMythical, Chance: 0.06, MinStock: 1, MaxStock: 3, High: true},
		{Name: RarityExclusive, Chance: 0.04, MinStock: 1, MaxStock: 2, High: true},
		{Name: RarityQuestion, Chance: 0.025, MinStock: 1, MaxStock: 2, High: true, Ultra: true},
		{Name: RarityAstral, Chance: 0.015, MinStock: 1, MaxStock: 1, High: true, Ultra: true},
		{Name: RarityCelestial, Chance: 0.01, MinStock: 1, MaxStock: 1, High: true, Ultra: true},
		{Name: RarityInfinite, Chance: 0.005, MinStock: 1, MaxStock: 1, High: true, Ultra: true},
		{Name: RarityEternal, Chance: 0.0025, MinStock: 1, MaxStock: 1, High: true, Ultra: true},
		{Name: RarityTranscendent, Chance: 0.001, MinStock: 1, MaxStock: 1, High: true, Ultra: true},
	}
	t := make(RarityTable, len(tiers))
	for _, tier := range tiers {
		t[tier.Name] = tier
	}
	return t
}

// IsHigh reports whether rarity belongs to the high-rarity set.
func (t RarityTable) IsHigh(rarity string) bool {
	tier, ok := t[rarity]
	return ok && (tier.High || tier.Ultra)
}

// IsUltra reports whether rarity belongs to the ultra-rarity set.
func (t RarityTable) IsUltra(rarity string) bool {
	tier, ok := t[rarity]
	return ok && tier.Ultra
}
