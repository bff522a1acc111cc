package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"databank/internal/bytestore"
)

// EntryStore adapts the opaque byte store to logical entries. It owns the
// key formatting and the JSON wire form; everything below it sees only
// key strings and bytes.
type EntryStore struct {
	store bytestore.Store
}

// NewEntryStore wraps a byte store.
func NewEntryStore(store bytestore.Store) *EntryStore {
	return &EntryStore{store: store}
}

// Load fetches and decodes the entry for key. Unreadable or corrupt bytes
// are treated as if the key were absent: the caller gets a fresh entry and
// the next merge overwrites the bad blob. Only store-level read failures
// surface as errors.
func (s *EntryStore) Load(ctx context.Context, key Key) (*Entry, bool, error) {
	raw, ok, err := s.store.Get(ctx, key.String())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read entry %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("discarding unreadable cache entry", "key", key.String(), "error", err)
		return nil, false, nil
	}
	entry.normalize()
	return &entry, true, nil
}

// Save encodes and persists the entry under its key.
func (s *EntryStore) Save(ctx context.Context, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry %s: %w", entry.Key(), err)
	}
	if err := s.store.Set(ctx, entry.Key().String(), raw); err != nil {
		return fmt.Errorf("failed to persist entry %s: %w", entry.Key(), err)
	}
	return nil
}
