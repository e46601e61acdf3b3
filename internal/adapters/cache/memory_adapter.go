package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

const (
	// DefaultMemoryEntries bounds the fallback cache when Redis is not available
	DefaultMemoryEntries = 10000
	memorySweepInterval  = time.Minute
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryAdapter is a process-local CacheProvider used when Redis is not configured.
// It holds at most a fixed number of entries, dropping the least recently used,
// and expired entries are swept on writes.
type MemoryAdapter struct {
	mu        sync.Mutex
	entries   *simplelru.LRU[string, memoryEntry]
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryAdapter creates an in-memory cache holding DefaultMemoryEntries entries
func NewMemoryAdapter() *MemoryAdapter {
	return NewMemoryAdapterWithSize(DefaultMemoryEntries)
}

// NewMemoryAdapterWithSize creates an in-memory cache holding at most maxEntries entries
func NewMemoryAdapterWithSize(maxEntries int) *MemoryAdapter {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	entries, err := simplelru.NewLRU[string, memoryEntry](maxEntries, nil)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &MemoryAdapter{
		entries: entries,
		now:     time.Now,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if entry.expired(a.now()) {
		a.entries.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value; a non-positive ttl never expires
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	a.sweep(now)
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries.Remove(key)
	return nil
}

// Len returns the number of held entries, expired ones included until swept
func (a *MemoryAdapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries.Len()
}

// sweep drops expired entries at most once per interval. Callers hold mu.
func (a *MemoryAdapter) sweep(now time.Time) {
	if now.Before(a.nextSweep) {
		return
	}
	a.nextSweep = now.Add(memorySweepInterval)
	for _, key := range a.entries.Keys() {
		if entry, ok := a.entries.Peek(key); ok && entry.expired(now) {
			a.entries.Remove(key)
		}
	}
}
