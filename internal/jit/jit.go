package jit

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultCacheCapacity bounds the entry cache when a caller doesn't size it
// explicitly.
const DefaultCacheCapacity = 256

// Compiler is the C10 facade the dispatch loop consults on a hot-loop
// trigger (spec.md §4.8): it builds an IR program for the loop, asks a
// Backend to translate it, and installs the resulting Entry in its cache.
// jit_compilation_count and jit_invocation_count track the two counters
// the testable property in §4.8 names.
type Compiler struct {
	cache   *Cache
	backend Backend

	compilationCount uint64
	invocationCount  uint64
}

// New returns a Compiler backed by an InterpreterBackend and a cache of the
// given capacity (DefaultCacheCapacity if capacity <= 0).
func New(capacity int) (*Compiler, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cache, err := NewCache(capacity)
	if err != nil {
		return nil, err
	}
	return &Compiler{cache: cache, backend: InterpreterBackend{}}, nil
}

// Compile builds an Entry for prog, installs it under key, and bumps
// jit_compilation_count. It always mints a fresh generation via
// google/uuid rather than a counter, so a resumed or re-attached cache can
// tell a stale entry apart from a current one without persisted state.
func (c *Compiler) Compile(key Key, prog *Program) (*Entry, error) {
	Optimize(prog)
	entryPoint, err := c.backend.Translate(prog)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Generation: uuid.New(), EntryPoint: entryPoint, Program: prog}
	c.cache.Install(key, entry)
	atomic.AddUint64(&c.compilationCount, 1)
	return entry, nil
}

// Lookup returns the installed entry for key, if any.
func (c *Compiler) Lookup(key Key) (*Entry, bool) {
	return c.cache.Lookup(key)
}

// Invoke runs entry against inputs, bumping jit_invocation_count. Callers
// use this rather than calling entry.EntryPoint directly so the counter
// stays accurate regardless of which entry is being re-invoked.
func (c *Compiler) Invoke(entry *Entry, inputs map[int]interface{}) (interface{}, error) {
	atomic.AddUint64(&c.invocationCount, 1)
	return entry.EntryPoint(inputs)
}

// CompilationCount returns jit_compilation_count.
func (c *Compiler) CompilationCount() uint64 { return atomic.LoadUint64(&c.compilationCount) }

// InvocationCount returns jit_invocation_count.
func (c *Compiler) InvocationCount() uint64 { return atomic.LoadUint64(&c.invocationCount) }

// CacheLen returns the number of entries currently cached.
func (c *Compiler) CacheLen() int { return c.cache.Len() }
