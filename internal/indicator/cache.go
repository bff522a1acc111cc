package indicator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"databank/internal/bytestore"
	"databank/internal/core"
)

// FetchFunc retrieves records from the remote source for one miss
// resolution. The cache calls it at most once per Resolve.
type FetchFunc func(ctx context.Context) ([]core.SourceRecord, error)

// Stats augments the byte store's counters with the number of distinct
// entry keys this cache instance has resolved.
type Stats struct {
	bytestore.Stats
	EntryKeys int `json:"entry_keys"`
}

// Cache is the public entry point of the indicator cache. It composes the
// coverage model, merge engine, extraction, and entry store with an
// externally supplied fetch callback, and serializes the read-modify-write
// sequence per key so concurrent misses cannot lose updates.
//
// Construct with New, use, then Close. The cache takes ownership of the
// byte store and closes it.
type Cache struct {
	entries *EntryStore
	store   bytestore.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	known map[string]struct{}

	// OnSaveFailure, when set, is invoked after a merge whose persistence
	// failed. The merged result is still returned to the caller for that
	// call, but the update is not durable; operators need to see it.
	OnSaveFailure func(key Key, err error)
}

// New creates a cache over the given byte store.
func New(store bytestore.Store) *Cache {
	return &Cache{
		entries: NewEntryStore(store),
		store:   store,
		locks:   make(map[string]*sync.Mutex),
		known:   make(map[string]struct{}),
	}
}

// lockFor returns the mutex guarding one key, creating it on first use.
// Independent keys get independent locks, preserving cross-key parallelism.
func (c *Cache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lk, ok := c.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		c.locks[key] = lk
	}
	return lk
}

func (c *Cache) remember(key Key) {
	c.mu.Lock()
	c.known[key.String()] = struct{}{}
	c.mu.Unlock()
}

// Resolve answers a query for one indicator key, fetching and merging only
// what the cache cannot already supply. The boolean result reports whether
// the answer came entirely from cache.
//
// The whole load→missing-check→fetch→merge→save sequence runs under the
// key's lock. A hit takes the same lock; it is uncontended in that case and
// re-validating under it keeps two concurrent first-time misses from both
// fetching.
//
// On fetch failure the entry is not mutated and not saved, and an empty
// result is returned with a fetch error. On save failure the merged records
// are still returned for this call; the failure is logged and reported via
// OnSaveFailure.
func (c *Cache) Resolve(ctx context.Context, key Key, displayNameHint string, req core.FetchRequest, fetch FetchFunc) ([]core.Observation, bool, error) {
	lk := c.lockFor(key.String())
	lk.Lock()
	defer lk.Unlock()

	entry, found, err := c.entries.Load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		entry = NewEntry(key, displayNameHint)
	} else if entry.DisplayName == "" && displayNameHint != "" {
		entry.DisplayName = displayNameHint
	}

	missing := FindMissing(entry, req.Countries, req.Years)
	if !missing.NeedsFetch {
		c.remember(key)
		slog.Debug("cache hit", "key", key.String(), "years", req.Years)
		return Extract(entry, req.Countries, req.Years), true, nil
	}

	records, err := fetch(ctx)
	if err != nil {
		return nil, false, core.NewFetchError("fetching "+key.String(), err)
	}

	added := Merge(entry, records, req.Countries, req.Years, time.Now().UTC())
	slog.Debug("merged fetch into cache",
		"key", key.String(),
		"added", added,
		"record_count", entry.RecordCount,
	)

	if err := c.entries.Save(ctx, entry); err != nil {
		slog.Error("cache entry not persisted, result served from memory only",
			"key", key.String(), "error", err)
		if c.OnSaveFailure != nil {
			c.OnSaveFailure(key, err)
		}
	}
	c.remember(key)

	return Extract(entry, req.Countries, req.Years), false, nil
}

// Stats returns the byte store's stats plus the distinct entry-key count.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	storeStats, err := c.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	c.mu.Lock()
	keys := len(c.known)
	c.mu.Unlock()
	return Stats{Stats: storeStats, EntryKeys: keys}, nil
}

// Close releases the underlying byte store.
func (c *Cache) Close() error {
	return c.store.Close()
}
