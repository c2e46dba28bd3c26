package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentListLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"m1", "m2"}, nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan []string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "match:list:league=", loader)
			if err != nil {
				t.Errorf("GetOrLoad error: %v", err)
				return
			}
			items, _ := v.([]string)
			results <- items
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for items := range results {
		if len(items) != 2 {
			t.Fatalf("unexpected items got=%v want=[m1 m2]", items)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader calls got=%d want=1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	errDB := errors.New("db down")
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errDB
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "match:leagues", loader); !errors.Is(err, errDB) {
		t.Fatalf("first load error got=%v want=%v", err, errDB)
	}
	v, err := store.GetOrLoad(context.Background(), "match:leagues", loader)
	if err != nil || v != "ok" {
		t.Fatalf("second load got=(%v, %v) want=(ok, nil)", v, err)
	}
}

func TestStore_DeletePrefixDropsOnlyMatchingKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "match:list:a", 1)
	store.Set(ctx, "match:id:m1", 2)
	store.Set(ctx, "team:list", 3)

	if got := store.DeletePrefix(ctx, "match:"); got != 2 {
		t.Fatalf("removed got=%d want=2", got)
	}
	if _, ok := store.Get(ctx, "team:list"); !ok {
		t.Fatalf("expected team key to survive")
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("len got=%d want=1", got)
	}
	if got := store.DeletePrefix(ctx, ""); got != 0 {
		t.Fatalf("empty prefix removed got=%d want=0", got)
	}
}

func TestStore_EntriesExpireAfterTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(ctx, "match:id:m1", "cached")
	if _, ok := store.Get(ctx, "match:id:m1"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(ctx, "match:id:m1"); ok {
		t.Fatalf("expected entry to expire")
	}
	if got := store.Len(); got != 0 {
		t.Fatalf("len after expiry got=%d want=0", got)
	}
}

func TestStore_InvalidationDuringLoadSkipsStaleWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	v, err := store.GetOrLoad(ctx, "match:list:league=", func(context.Context) (any, error) {
		// An import commits and invalidates while the read is in flight.
		store.DeletePrefix(ctx, "match:")
		return "stale", nil
	})
	if err != nil || v != "stale" {
		t.Fatalf("load got=(%v, %v) want=(stale, nil)", v, err)
	}
	if _, ok := store.Get(ctx, "match:list:league="); ok {
		t.Fatalf("stale value should not be cached after invalidation")
	}
}
