package lobby

import (
	"sort"
	"sync"

	"slether-arena/game"
)

// DefaultTiers is the built-in stakes ladder used when no tier table is available.
func DefaultTiers() []game.Tier {
	return []game.Tier{
		game.FreeTier,
		{ID: "bronze", Name: "Bronze", BuyIn: 1, PlatformFee: 0.10},
		{ID: "silver", Name: "Silver", BuyIn: 5, PlatformFee: 0.08},
		{ID: "gold", Name: "Gold", BuyIn: 25, PlatformFee: 0.05},
	}
}

// TierCatalog is an in-memory TierProvider. It always contains the free tier.
type TierCatalog struct {
	mu    sync.RWMutex
	tiers map[string]game.Tier
}

// NewTierCatalog builds a catalog from tiers, adding the free tier if missing.
func NewTierCatalog(tiers []game.Tier) *TierCatalog {
	c := &TierCatalog{tiers: make(map[string]game.Tier)}
	c.Replace(tiers)
	return c
}

// Replace swaps the catalog contents
func (c *TierCatalog) Replace(tiers []game.Tier) {
	m := make(map[string]game.Tier, len(tiers)+1)
	m[game.FreeTierID] = game.FreeTier
	for _, t := range tiers {
		if t.ID == "" {
			continue
		}
		m[t.ID] = t
	}
	c.mu.Lock()
	c.tiers = m
	c.mu.Unlock()
}

// ListTiers returns every tier ordered by buy-in
func (c *TierCatalog) ListTiers() []game.Tier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]game.Tier, 0, len(c.tiers))
	for _, t := range c.tiers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuyIn != out[j].BuyIn {
			return out[i].BuyIn < out[j].BuyIn
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetTier looks a tier up by id
func (c *TierCatalog) GetTier(id string) (game.Tier, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tiers[id]
	return t, ok
}
