package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

func TestMatchRepositoryInsertManyIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMatchRepository([]match.Match{
		{ID: "m1", SourceURL: "u", SourceMatchID: "a", LeagueName: "L"},
	})

	err := repo.InsertMany(ctx, []match.Match{
		{ID: "m2", SourceURL: "u", SourceMatchID: "b"},
		{ID: "m3", SourceURL: "u", SourceMatchID: "a"},
	})
	if err == nil {
		t.Fatalf("expected duplicate source key error")
	}
	if _, exists, _ := repo.GetByID(ctx, "m2"); exists {
		t.Fatalf("expected batch to be rejected as a whole")
	}
}

func TestMatchRepositoryDeleteBySourceURLs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMatchRepository([]match.Match{
		{ID: "m1", SourceURL: "feed-a", SourceMatchID: "1"},
		{ID: "m2", SourceURL: "feed-b", SourceMatchID: "2"},
		{ID: "m3", SourceKind: match.SourceKindManual},
	})

	removed, err := repo.DeleteBySourceURLs(ctx, []string{"feed-a"})
	if err != nil {
		t.Fatalf("delete by source urls: %v", err)
	}
	if removed != 1 {
		t.Fatalf("unexpected removed count: got=%d want=1", removed)
	}
	keys, _ := repo.ListSourceKeys(ctx)
	if len(keys) != 1 || keys[0].SourceURL != "feed-b" {
		t.Fatalf("unexpected remaining keys: %+v", keys)
	}
	// the freed key can be imported again
	if err := repo.InsertMany(ctx, []match.Match{{ID: "m4", SourceURL: "feed-a", SourceMatchID: "1"}}); err != nil {
		t.Fatalf("reinsert after delete: %v", err)
	}
}

func TestMatchRepositoryReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	score := 1
	repo := NewMatchRepository([]match.Match{{ID: "m1", Score1: &score, Score2: &score, Kickoff: time.Unix(0, 0)}})

	got, _, _ := repo.GetByID(ctx, "m1")
	*got.Score1 = 5

	again, _, _ := repo.GetByID(ctx, "m1")
	if *again.Score1 != 1 {
		t.Fatalf("unexpected stored score mutation: got=%d want=1", *again.Score1)
	}
}

func TestTombstoneRepositoryBySource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTombstoneRepository()
	now := time.Now()
	_ = repo.UpsertMany(ctx, []match.DeletedMarker{
		{SourceKey: match.SourceKey{SourceURL: "a", SourceMatchID: "1"}, DeletedAt: now},
		{SourceKey: match.SourceKey{SourceURL: "b", SourceMatchID: "2"}, DeletedAt: now},
		{SourceKey: match.SourceKey{SourceURL: "a", SourceMatchID: "1"}, DeletedAt: now},
	})

	ids, _ := repo.ListSourceMatchIDsBySource(ctx, "a")
	if len(ids) != 1 || ids[0] != "1" {
		t.Fatalf("unexpected ids for source a: %v", ids)
	}
	keys, _ := repo.ListKeys(ctx)
	if len(keys) != 2 {
		t.Fatalf("unexpected key count: got=%d want=2", len(keys))
	}
}
