package gamefs

import (
	"sync"
	"time"
)

// lookupCache remembers which chain entry served a logical path and which
// paths were not found anywhere. Keys keep the caller's case because loose
// directories may live on a case sensitive host.
type lookupCache struct {
	hits       map[string]*hitEntry
	misses     map[string]*missEntry
	mu         sync.RWMutex
	hitTTL     time.Duration
	missTTL    time.Duration
	maxEntries int
	enabled    bool
	generation uint64
}

// cacheKey is the lookup cache key for qpath
func cacheKey(qpath string) string {
	return NormalizeSeparators(qpath)
}

// hitEntry stores the chain index that resolved a path
type hitEntry struct {
	index      int
	generation uint64
	expires    time.Time
}

// missEntry stores a path known to be absent from the chain
type missEntry struct {
	generation uint64
	expires    time.Time
}

// newLookupCache creates a cache; a disabled cache answers every query with a miss
func newLookupCache(enabled bool, hitTTL, missTTL time.Duration, maxEntries int) *lookupCache {
	if !enabled {
		return &lookupCache{enabled: false}
	}

	return &lookupCache{
		hits:       make(map[string]*hitEntry),
		misses:     make(map[string]*missEntry),
		hitTTL:     hitTTL,
		missTTL:    missTTL,
		maxEntries: maxEntries,
		enabled:    true,
	}
}

// currentGeneration returns the generation entries are stamped with. Callers
// read it together with the chain they resolve against.
func (c *lookupCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// getHit returns the chain index cached for key by a resolution against the
// chain of generation gen
func (c *lookupCache) getHit(key string, gen uint64) (int, bool) {
	if !c.enabled {
		return -1, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.hits[key]
	if !ok || gen != c.generation || entry.generation != gen || time.Now().After(entry.expires) {
		return -1, false
	}
	return entry.index, true
}

// putHit records that the chain entry at index served key. Nothing is stored
// when the chain of generation gen has been replaced since.
func (c *lookupCache) putHit(key string, index int, gen uint64) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	if len(c.hits) >= c.maxEntries {
		c.evictOldestHit()
	}
	delete(c.misses, key)
	c.hits[key] = &hitEntry{
		index:      index,
		generation: gen,
		expires:    time.Now().Add(c.hitTTL),
	}
}

// isMiss reports whether key is known to be absent from the chain of
// generation gen
func (c *lookupCache) isMiss(key string, gen uint64) bool {
	if !c.enabled {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.misses[key]
	if !ok || gen != c.generation || entry.generation != gen {
		return false
	}
	return !time.Now().After(entry.expires)
}

// putMiss records that key resolved nowhere in the chain of generation gen
func (c *lookupCache) putMiss(key string, gen uint64) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	if len(c.misses) >= c.maxEntries {
		c.evictOldestMiss()
	}
	c.misses[key] = &missEntry{
		generation: gen,
		expires:    time.Now().Add(c.missTTL),
	}
}

// invalidate drops key from both maps
func (c *lookupCache) invalidate(key string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.hits, key)
	delete(c.misses, key)
}

// reset drops everything; called whenever the chain is swapped
func (c *lookupCache) reset() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.hits = make(map[string]*hitEntry)
	c.misses = make(map[string]*missEntry)
}

func (c *lookupCache) evictOldestHit() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.hits {
		if oldestKey == "" || entry.expires.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expires
		}
	}

	if oldestKey != "" {
		delete(c.hits, oldestKey)
	}
}

func (c *lookupCache) evictOldestMiss() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.misses {
		if oldestKey == "" || entry.expires.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expires
		}
	}

	if oldestKey != "" {
		delete(c.misses, oldestKey)
	}
}

// Stats returns cache statistics
func (c *lookupCache) Stats() CacheStats {
	if !c.enabled {
		return CacheStats{Enabled: false}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Enabled:    true,
		Hits:       len(c.hits),
		Misses:     len(c.misses),
		MaxEntries: c.maxEntries,
		HitTTL:     c.hitTTL,
		MissTTL:    c.missTTL,
	}
}

// CacheStats contains lookup cache statistics
type CacheStats struct {
	Enabled    bool
	Hits       int
	Misses     int
	MaxEntries int
	HitTTL     time.Duration
	MissTTL    time.Duration
}
