package jit

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"
)

// Key identifies one hot loop, exactly the profiler's (func, loop) pair.
type Key struct {
	Func string
	Loop int
}

// Entry is one installed JIT compilation: its generation, compiled entry
// point, and the optimized Program it was built from (kept for inspection
// and for CollectParity).
type Entry struct {
	Generation uuid.UUID
	EntryPoint EntryPoint
	Program    *Program
}

// Cache is the JIT's append-plus-lookup entry cache (spec.md §5: "entries
// are keyed by (func, loop) and never rewritten; a higher generation
// supersedes"). It wraps hashicorp/golang-lru rather than a hand-rolled
// map+eviction policy, since entries are genuinely cache-shaped: bounded,
// keyed, and superseded rather than mutated in place.
type Cache struct {
	lru *lru.Cache
}

// NewCache returns a Cache holding at most capacity entries.
func NewCache(capacity int) (*Cache, error) {
	l, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Lookup returns the entry installed for key, if any.
func (c *Cache) Lookup(key Key) (*Entry, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Install records entry under key, evicting the least-recently-used entry
// if the cache is at capacity. A later Install for the same key always
// carries a newer generation, matching the "higher generation supersedes"
// contract — it never mutates the entry returned by an earlier Lookup.
func (c *Cache) Install(key Key, entry *Entry) {
	c.lru.Add(key, entry)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
