package cache

import (
	"sort"
	"sync"
	"time"

	"CoinDash/pkg/util"
)

type entry struct {
	v        any
	storedAt time.Time
	ttl      time.Duration
}

// TTLCache is an in-memory map whose entries expire ttl after they were stored.
// Expired entries are removed lazily by Get; there is no background sweeper.
type TTLCache struct {
	mu     sync.Mutex
	m      map[string]entry
	clock  util.Clock
	hits   int64
	misses int64
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock overrides the time source.
func WithClock(c util.Clock) Option {
	return func(tc *TTLCache) { tc.clock = util.ClockOrSystem(c) }
}

func NewTTLCache(opts ...Option) *TTLCache {
	c := &TTLCache{m: make(map[string]entry), clock: util.SystemClock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if it was stored less than its ttl ago.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.clock.Now().Sub(e.storedAt) >= e.ttl {
		delete(c.m, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.v, true
}

// Set overwrites key. A non-positive ttl stores an entry that is already stale.
func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	c.mu.Lock()
	c.m[key] = entry{v: v, storedAt: c.clock.Now(), ttl: ttl}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Clear drops every entry and resets the counters.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet looked up.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Stats is a diagnostic snapshot.
type Stats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   int64    `json:"hits"`
	Misses int64    `json:"misses"`
}

func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Stats{Size: len(c.m), Keys: keys, Hits: c.hits, Misses: c.misses}
}

// GetAs is Get with a type assertion; a value of the wrong type counts as absent.
func GetAs[T any](c *TTLCache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
