package indicator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"databank/internal/core"
)

func fullBatch(year string, n int) []core.SourceRecord {
	records := make([]core.SourceRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, core.SourceRecord{
			Country: string(rune('A'+i/26/26)) + string(rune('A'+i/26%26)) + string(rune('A'+i%26)),
			Year:    year,
			Value:   fv(float64(i)),
		})
	}
	return records
}

func TestResolveMissThenHit(t *testing.T) {
	cache := New(newFakeStore())
	ctx := context.Background()
	key := Key{Indicator: "IND", Database: "DB"}
	req := core.FetchRequest{Years: []int{2020}}

	var calls int
	fetch := func(context.Context) ([]core.SourceRecord, error) {
		calls++
		return fullBatch("2020", 200), nil
	}

	records, hit, err := cache.Resolve(ctx, key, "GDP growth", req, fetch)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hit {
		t.Error("first resolution should be a miss")
	}
	if len(records) != 200 {
		t.Errorf("got %d records, want 200", len(records))
	}

	records, hit, err = cache.Resolve(ctx, key, "", req, fetch)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !hit {
		t.Error("second resolution should be a hit")
	}
	if len(records) != 200 {
		t.Errorf("got %d records, want 200", len(records))
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestResolveFetchFailureNoMutation(t *testing.T) {
	store := newFakeStore()
	cache := New(store)
	ctx := context.Background()
	key := Key{Indicator: "IND", Database: "DB"}
	req := core.FetchRequest{Countries: []string{"USA"}, Years: []int{2020}}

	_, _, err := cache.Resolve(ctx, key, "", req, func(context.Context) ([]core.SourceRecord, error) {
		return nil, errors.New("upstream 503")
	})
	if err == nil {
		t.Fatal("expected fetch error")
	}
	var svcErr *core.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Kind != core.ErrorKindFetch {
		t.Errorf("error = %v, want fetch_failure ServiceError", err)
	}
	if store.setCnt != 0 {
		t.Error("failed fetch must not write to the store")
	}
}

func TestResolveSaveFailureStillReturnsRecords(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("disk full")
	cache := New(store)

	var notified atomic.Int32
	cache.OnSaveFailure = func(Key, error) { notified.Add(1) }

	req := core.FetchRequest{Countries: []string{"USA"}, Years: []int{2020}}
	records, hit, err := cache.Resolve(context.Background(), Key{Indicator: "IND", Database: "DB"}, "", req,
		func(context.Context) ([]core.SourceRecord, error) {
			return []core.SourceRecord{rec("USA", "2020", fv(20.9))}, nil
		})
	if err != nil {
		t.Fatalf("save failure must not fail the call, got %v", err)
	}
	if hit {
		t.Error("expected miss")
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want the merged result despite the save failure", len(records))
	}
	if notified.Load() != 1 {
		t.Errorf("OnSaveFailure fired %d times, want 1", notified.Load())
	}
}

func TestResolveConcurrentSameKeySingleFetch(t *testing.T) {
	cache := New(newFakeStore())
	key := Key{Indicator: "IND", Database: "DB"}
	req := core.FetchRequest{Countries: []string{"USA"}, Years: []int{2020}}

	var calls atomic.Int32
	fetch := func(context.Context) ([]core.SourceRecord, error) {
		calls.Add(1)
		return []core.SourceRecord{rec("USA", "2020", fv(1))}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := cache.Resolve(context.Background(), key, "", req, fetch); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fetch called %d times, want 1 (later resolvers hit under the key lock)", calls.Load())
	}
}

func TestResolveLoadErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("backend down")
	cache := New(store)

	_, _, err := cache.Resolve(context.Background(), Key{Indicator: "IND", Database: "DB"}, "",
		core.FetchRequest{Years: []int{2020}},
		func(context.Context) ([]core.SourceRecord, error) {
			t.Fatal("fetch must not run when the load fails")
			return nil, nil
		})
	if err == nil {
		t.Fatal("expected load error")
	}
}

func TestCacheStats(t *testing.T) {
	cache := New(newFakeStore())
	ctx := context.Background()

	_, _, err := cache.Resolve(ctx, Key{Indicator: "A", Database: "DB"}, "",
		core.FetchRequest{Countries: []string{"USA"}, Years: []int{2020}},
		func(context.Context) ([]core.SourceRecord, error) {
			return []core.SourceRecord{rec("USA", "2020", fv(1))}, nil
		})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.EntryKeys != 1 {
		t.Errorf("EntryKeys = %d, want 1", stats.EntryKeys)
	}
	if stats.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", stats.ItemCount)
	}
}
