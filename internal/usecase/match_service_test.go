package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/matchfeed/internal/mocks/domain/match"
	settingsmock "github.com/riskibarqy/matchfeed/internal/mocks/domain/settings"
	"github.com/stretchr/testify/mock"
)

func seededMatches() []match.Match {
	return []match.Match{
		{ID: "m1", SourceURL: feedA, SourceMatchID: "L_A_B_2025-08-10", LeagueName: "Serie A", Kickoff: time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC), Team1: match.Team{Name: "A"}, Team2: match.Team{Name: "B"}, Status: match.StatusFinished},
		{ID: "m2", SourceURL: feedA, SourceMatchID: "L_C_D_2025-08-12", LeagueName: "Serie A", Kickoff: time.Date(2025, 8, 12, 18, 0, 0, 0, time.UTC), Team1: match.Team{Name: "C"}, Team2: match.Team{Name: "D"}, Status: match.StatusUpcoming},
		{ID: "m3", SourceKind: match.SourceKindManual, LeagueName: "La Liga", Kickoff: time.Date(2025, 8, 11, 18, 0, 0, 0, time.UTC), Team1: match.Team{Name: "E"}, Team2: match.Team{Name: "F"}, Status: match.StatusUpcoming},
	}
}

func TestMatchService_ListSortsAndFlagsFeatured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	settingsRepo := memory.NewSettingsRepository()
	_ = settingsRepo.SetFeaturedMatchIDs(ctx, []string{"m3"})
	service := NewMatchService(memory.NewMatchRepository(seededMatches()), memory.NewTombstoneRepository(), settingsRepo, nil, nil)

	items, err := service.List(ctx, ListMatchesInput{})
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	want := []string{"m2", "m3", "m1"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("unexpected order at %d: got=%s want=%s", i, items[i].ID, id)
		}
	}
	if !items[1].IsFeatured || items[0].IsFeatured {
		t.Fatalf("unexpected featured flags: %v %v", items[0].IsFeatured, items[1].IsFeatured)
	}

	featured, err := service.List(ctx, ListMatchesInput{FeaturedOnly: true})
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	if len(featured) != 1 || featured[0].ID != "m3" {
		t.Fatalf("unexpected featured list: %+v", featured)
	}

	if _, err := service.List(ctx, ListMatchesInput{Status: "Halftime"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestMatchService_BulkDeleteTombstonesSourceMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tombstones := memory.NewTombstoneRepository()
	settingsRepo := memory.NewSettingsRepository()
	_ = settingsRepo.SetFeaturedMatchIDs(ctx, []string{"m1", "m3", "other"})
	matches := memory.NewMatchRepository(seededMatches())
	service := NewMatchService(matches, tombstones, settingsRepo, nil, nil)

	deleted, err := service.BulkDelete(ctx, []string{"m1", "m3", "m1", " "})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("unexpected deleted count: got=%d want=2", deleted)
	}

	keys, _ := tombstones.ListKeys(ctx)
	if len(keys) != 1 || keys[0].SourceMatchID != "L_A_B_2025-08-10" {
		t.Fatalf("unexpected tombstones: %+v", keys)
	}
	featured, _ := settingsRepo.FeaturedMatchIDs(ctx)
	if len(featured) != 1 || featured[0] != "other" {
		t.Fatalf("unexpected featured after delete: %v", featured)
	}
}

func TestMatchService_DeleteMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	matchRepo.On("GetByID", mock.Anything, "missing").Return(match.Match{}, false, nil).Once()

	service := NewMatchService(matchRepo, matchmock.NewTombstoneRepository(t), settingsmock.NewRepository(t), nil, nil)
	if err := service.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMatchService_TombstoneFailureStopsDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	tombstoneRepo := matchmock.NewTombstoneRepository(t)
	matchRepo.On("List", mock.Anything, match.Filter{IDs: []string{"m1"}}).Return(seededMatches()[:1], nil).Once()
	tombstoneRepo.On("UpsertMany", mock.Anything, mock.Anything).Return(errors.New("write failed")).Once()

	service := NewMatchService(matchRepo, tombstoneRepo, settingsmock.NewRepository(t), nil, nil)
	if _, err := service.BulkDelete(ctx, []string{"m1"}); err == nil {
		t.Fatalf("expected tombstone error")
	}
	matchRepo.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}

func TestMatchService_CreateAndUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository(nil)
	service := NewMatchService(repo, memory.NewTombstoneRepository(), memory.NewSettingsRepository(), nil, nil)

	one, two := 1, 0
	created, err := service.Create(ctx, MatchInput{
		LeagueName:  "Friendly",
		Kickoff:     time.Date(2025, 9, 1, 19, 0, 0, 0, time.UTC),
		Team1:       match.Team{Name: " Home "},
		Team2:       match.Team{Name: "Away"},
		StreamLinks: []match.StreamLink{{URL: "https://stream.example.com/embed/1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.SourceKind != match.SourceKindManual || created.Status != match.StatusUpcoming {
		t.Fatalf("unexpected created match: %+v", created)
	}
	if created.StreamLinks[0].ID == "" || created.StreamLinks[0].Type != match.StreamTypeIframe || created.StreamLinks[0].Status != match.StreamLinkUnknown {
		t.Fatalf("unexpected stream link defaults: %+v", created.StreamLinks[0])
	}

	updated, err := service.Update(ctx, created.ID, MatchInput{
		LeagueName: "Friendly",
		Kickoff:    created.Kickoff,
		Team1:      created.Team1,
		Team2:      created.Team2,
		Score1:     &one,
		Score2:     &two,
		Status:     match.StatusPostponed,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != match.StatusPostponed || *updated.Score1 != 1 {
		t.Fatalf("unexpected updated match: %+v", updated)
	}

	if _, err := service.Update(ctx, created.ID, MatchInput{LeagueName: "x", Kickoff: created.Kickoff, Team1: created.Team1, Team2: created.Team2, Score1: &one}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for half score, got %v", err)
	}
}

func TestMatchService_ToggleFeatured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	settingsRepo := memory.NewSettingsRepository()
	service := NewMatchService(memory.NewMatchRepository(seededMatches()), memory.NewTombstoneRepository(), settingsRepo, nil, nil)

	on, err := service.ToggleFeatured(ctx, "m2")
	if err != nil || !on {
		t.Fatalf("unexpected first toggle: on=%v err=%v", on, err)
	}
	off, err := service.ToggleFeatured(ctx, "m2")
	if err != nil || off {
		t.Fatalf("unexpected second toggle: on=%v err=%v", off, err)
	}
	ids, _ := settingsRepo.FeaturedMatchIDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("unexpected featured ids: %v", ids)
	}
}

func TestMatchService_BulkStatusAndStreams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository(seededMatches())
	service := NewMatchService(repo, memory.NewTombstoneRepository(), memory.NewSettingsRepository(), nil, nil)

	if _, err := service.BulkUpdateStatus(ctx, []string{"m2"}, match.StatusCancelled); err != nil {
		t.Fatalf("bulk status: %v", err)
	}
	got, _, _ := repo.GetByID(ctx, "m2")
	if got.Status != match.StatusCancelled {
		t.Fatalf("unexpected status: got=%s want=%s", got.Status, match.StatusCancelled)
	}
	if _, err := service.BulkUpdateStatus(ctx, []string{"m2"}, "Paused"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.BulkClearStreamLinks(ctx, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty ids, got %v", err)
	}
	leagues, _ := service.ListLeagues(ctx)
	if len(leagues) != 2 || leagues[0] != "La Liga" {
		t.Fatalf("unexpected leagues: %v", leagues)
	}
}
