package stores

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPendingStore(t *testing.T) (*PendingCartStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewPendingCartStore(rdb, "test"), mr
}

func TestPendingAddPreservesOrderAndMerges(t *testing.T) {
	store, _ := newTestPendingStore(t)
	ctx := context.Background()

	for _, add := range []PendingEntry{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	} {
		if err := store.Add(ctx, add.ProductID, add.Quantity); err != nil {
			t.Fatalf("add %s failed: %v", add.ProductID, err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []PendingEntry{{ProductID: "b", Quantity: 4}, {ProductID: "a", Quantity: 2}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestPendingListAbsentIsEmpty(t *testing.T) {
	store, _ := newTestPendingStore(t)

	got, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestPendingClear(t *testing.T) {
	store, _ := newTestPendingStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "p1", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list after clear, got %v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clearing an absent buffer failed: %v", err)
	}
}

func TestPendingAddRejectsInvalidEntry(t *testing.T) {
	store, _ := newTestPendingStore(t)

	if err := store.Add(context.Background(), "", 1); !errors.Is(err, ErrBufferCorrupt) {
		t.Fatalf("expected ErrBufferCorrupt for empty id, got %v", err)
	}
	if err := store.Add(context.Background(), "p1", 0); !errors.Is(err, ErrBufferCorrupt) {
		t.Fatalf("expected ErrBufferCorrupt for zero quantity, got %v", err)
	}
}

func TestPendingCorruptBufferReported(t *testing.T) {
	store, mr := newTestPendingStore(t)

	if err := mr.Set("test:pending-cart", "not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := store.List(context.Background()); !errors.Is(err, ErrBufferCorrupt) {
		t.Fatalf("expected ErrBufferCorrupt, got %v", err)
	}
}

func TestPendingAddRecoversCorruptBuffer(t *testing.T) {
	store, mr := newTestPendingStore(t)
	ctx := context.Background()

	if err := mr.Set("test:pending-cart", "not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// An undecodable buffer is abandoned and a fresh sequence begun.
	if err := store.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0] != (PendingEntry{ProductID: "p1", Quantity: 2}) {
		t.Fatalf("expected fresh single-entry buffer, got %v", got)
	}
}

func TestPendingStoreUnavailable(t *testing.T) {
	store, mr := newTestPendingStore(t)

	mr.SetError("down")
	defer mr.SetError("")

	if err := store.Add(context.Background(), "p1", 1); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
