package indicator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"databank/internal/bytestore"
	"databank/internal/core"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	setCnt  int
	statErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	raw, ok := f.data[key]
	return raw, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCnt++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Stats(_ context.Context) (bytestore.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return bytestore.Stats{}, f.statErr
	}
	return bytestore.Stats{ItemCount: int64(len(f.data))}, nil
}

func (f *fakeStore) Close() error { return nil }

func TestEntryStoreRoundtrip(t *testing.T) {
	store := newFakeStore()
	es := NewEntryStore(store)
	ctx := context.Background()

	entry := NewEntry(Key{Indicator: "IND", Database: "DB"}, "Some Indicator")
	Merge(entry, []core.SourceRecord{rec("USA", "2020", fv(20.9))}, []string{"USA"}, []int{2020}, time.Now().UTC())

	if err := es.Save(ctx, entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, found, err := es.Load(ctx, entry.Key())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected entry to be found")
	}
	if loaded.DisplayName != "Some Indicator" {
		t.Errorf("DisplayName = %q, want %q", loaded.DisplayName, "Some Indicator")
	}
	if loaded.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", loaded.RecordCount)
	}
	if v := loaded.Data["USA"][2020]; v == nil || *v != 20.9 {
		t.Errorf("cell = %v, want 20.9", v)
	}
	if loaded.Coverage[2020] != CoveragePartial {
		t.Errorf("Coverage[2020] = %s, want PARTIAL", loaded.Coverage[2020])
	}
}

func TestEntryStoreLoadAbsent(t *testing.T) {
	es := NewEntryStore(newFakeStore())

	_, found, err := es.Load(context.Background(), Key{Indicator: "X", Database: "Y"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("expected absent key")
	}
}

func TestEntryStoreLoadCorrupt(t *testing.T) {
	store := newFakeStore()
	key := Key{Indicator: "IND", Database: "DB"}
	store.data[key.String()] = []byte("{not json")

	es := NewEntryStore(store)
	_, found, err := es.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("corrupt bytes should not surface an error, got %v", err)
	}
	if found {
		t.Error("corrupt entry should be treated as absent")
	}
}

func TestEntryStoreLoadStoreError(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("disk gone")

	es := NewEntryStore(store)
	_, _, err := es.Load(context.Background(), Key{Indicator: "IND", Database: "DB"})
	if err == nil {
		t.Fatal("store read failure must propagate")
	}
}
