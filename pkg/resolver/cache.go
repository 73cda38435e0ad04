package resolver

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCacheTTL matches the slow churn of the canonical registry:
	// the expensive tiers are paid at most once per day per input.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultCacheSize bounds the cache; two teams per market across a few
	// thousand live markets fits comfortably.
	DefaultCacheSize = 8192
)

// resolutionCache stores completed resolutions, including nil for names that
// resolved to nothing. The negative entry is what stops a known-unresolvable
// name from re-running the whole fallback chain on every render.
//
// Entries expire a fixed TTL after being written regardless of access
// pattern. Values are immutable once stored, so concurrent writers racing on
// the same key simply overwrite equivalent results.
type resolutionCache struct {
	lru *expirable.LRU[string, *ResolvedTeam]
}

func newResolutionCache(size int, ttl time.Duration) *resolutionCache {
	return &resolutionCache{lru: expirable.NewLRU[string, *ResolvedTeam](size, nil, ttl)}
}

// get returns the cached result and whether the key was present. A present
// key with a nil value is a cached "no match".
func (c *resolutionCache) get(key string) (*ResolvedTeam, bool) {
	return c.lru.Get(key)
}

func (c *resolutionCache) put(key string, res *ResolvedTeam) {
	c.lru.Add(key, res)
}

func (c *resolutionCache) len() int {
	return c.lru.Len()
}

// cacheKey combines game and the raw input name. The cache is checked
// before normalization, so the key must use the raw form.
func cacheKey(game, name string) string {
	return game + "\x00" + name
}
