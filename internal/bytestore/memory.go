package bytestore

import (
	"container/list"
	"context"
	"sync"
)

// MemoryStore keeps values in process memory with least-recently-used
// eviction against an optional byte budget. Data survives across requests
// but not process restarts.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	size     int64
	maxBytes int64 // 0 = unbounded
	hits     int64
	misses   int64
}

type memoryItem struct {
	key   string
	value []byte
}

// NewMemoryStore creates an empty in-memory store. maxBytes caps the total
// stored value size; 0 disables eviction.
func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		maxBytes: maxBytes,
	}
}

// Get returns the value for key and marks it recently used.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false, nil
	}
	s.hits++
	s.order.MoveToFront(elem)

	item := elem.Value.(*memoryItem)
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

// Set stores value under key, evicting least-recently-used entries if the
// byte budget is exceeded.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		item := elem.Value.(*memoryItem)
		s.size += int64(len(stored)) - int64(len(item.value))
		item.value = stored
		s.order.MoveToFront(elem)
	} else {
		elem := s.order.PushFront(&memoryItem{key: key, value: stored})
		s.items[key] = elem
		s.size += int64(len(stored))
	}

	if s.maxBytes > 0 {
		// Never evict the entry just written, even if it alone exceeds the budget.
		for s.size > s.maxBytes && s.order.Len() > 1 {
			oldest := s.order.Back()
			item := oldest.Value.(*memoryItem)
			s.order.Remove(oldest)
			delete(s.items, item.key)
			s.size -= int64(len(item.value))
		}
	}
	return nil
}

// Delete removes key if present.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return nil
	}
	item := elem.Value.(*memoryItem)
	s.order.Remove(elem)
	delete(s.items, key)
	s.size -= int64(len(item.value))
	return nil
}

// Stats reports current size and access counters.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		SizeBytes: s.size,
		ItemCount: int64(len(s.items)),
		Hits:      s.hits,
		Misses:    s.misses,
	}, nil
}

// Close releases resources (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}
