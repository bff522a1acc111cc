package bytestore

import (
	"bytes"
	"context"
	"testing"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Get = %q ok=%v, want hello", got, ok)
	}

	_, ok, err = s.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("absent key reported present")
	}
}

func TestMemoryStoreDefensiveCopies(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	in := []byte("original")
	s.Set(ctx, "k", in)
	in[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}

	got[0] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	s.Set(ctx, "a", []byte("aaaa")) // 4 bytes
	s.Set(ctx, "b", []byte("bbbb")) // 8 total
	s.Get(ctx, "a")                 // a is now most recently used
	s.Set(ctx, "c", []byte("cccc")) // 12 total, evicts b

	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("least-recently-used entry b should have been evicted")
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Error("recently-used entry a should survive")
	}
	if _, ok, _ := s.Get(ctx, "c"); !ok {
		t.Error("just-written entry c should survive")
	}
}

func TestMemoryStoreNeverEvictsJustWritten(t *testing.T) {
	s := NewMemoryStore(4)
	ctx := context.Background()

	big := make([]byte, 64)
	s.Set(ctx, "big", big)

	got, ok, _ := s.Get(ctx, "big")
	if !ok || len(got) != 64 {
		t.Error("entry larger than the budget must still be readable right after Set")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting an absent key should be a no-op, got %v", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	s.Set(ctx, "k1", []byte("12345"))
	s.Set(ctx, "k2", []byte("123"))
	s.Get(ctx, "k1")
	s.Get(ctx, "nope")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", stats.ItemCount)
	}
	if stats.SizeBytes != 8 {
		t.Errorf("SizeBytes = %d, want 8", stats.SizeBytes)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}
