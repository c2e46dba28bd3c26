package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	"github.com/riskibarqy/matchfeed/internal/infrastructure/repository/memory"
	teamlogomock "github.com/riskibarqy/matchfeed/internal/mocks/domain/teamlogo"
	"github.com/stretchr/testify/mock"
)

type mapResolver struct {
	mu    sync.Mutex
	logos map[string]string
	calls []string
}

func (r *mapResolver) ResolveLogo(_ context.Context, team, _ string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, team)
	if team == "Broken" {
		return "", false, errors.New("probe failed")
	}
	logo, ok := r.logos[team]
	return logo, ok, nil
}

func TestTeamLogoService_DiscoverForMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTeamLogoRepository()
	_ = repo.Upsert(ctx, teamlogo.ManagedTeam{NameKey: "knownfc", DisplayName: "Known FC", LogoURL: "https://logo/known.png"})
	resolver := &mapResolver{logos: map[string]string{"Alpha": "https://logo/alpha.png"}}
	service := NewTeamLogoService(repo, resolver, TeamLogoConfig{Workers: 2}, nil)

	result, err := service.DiscoverForMatches(ctx, []match.Match{
		{LeagueName: "L", Team1: match.Team{Name: "Alpha"}, Team2: match.Team{Name: "Known FC"}},
		{LeagueName: "L", Team1: match.Team{Name: "alpha"}, Team2: match.Team{Name: "Broken"}},
		{LeagueName: "L", Team1: match.Team{Name: "Gamma"}, Team2: match.Team{Name: ""}},
	})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if result.Checked != 3 || result.Found != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	got, ok, _ := repo.GetByKey(ctx, "alpha")
	if !ok || got.LogoURL != "https://logo/alpha.png" || got.LeagueContext != "L" {
		t.Fatalf("unexpected stored team: %+v ok=%v", got, ok)
	}
}

func TestTeamLogoService_DecoratePrefersManaged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := teamlogomock.NewRepository(t)
	repo.On("List", mock.Anything).Return([]teamlogo.ManagedTeam{{NameKey: "alpha", LogoURL: "https://logo/alpha.png"}}, nil).Once()

	service := NewTeamLogoService(repo, nil, TeamLogoConfig{}, nil)
	items := service.Decorate(ctx, []match.Match{{LeagueName: "Premier League", Team1: match.Team{Name: "Alpha"}, Team2: match.Team{Name: "Aston Villa"}}})

	if items[0].Team1.LogoURL != "https://logo/alpha.png" {
		t.Fatalf("unexpected managed logo: got=%q", items[0].Team1.LogoURL)
	}
	if items[0].Team2.LogoURL != teamlogo.Guess("Aston Villa", "Premier League") {
		t.Fatalf("unexpected guessed logo: got=%q", items[0].Team2.LogoURL)
	}
}

func TestTeamLogoService_UpsertAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewTeamLogoService(memory.NewTeamLogoRepository(), nil, TeamLogoConfig{}, nil)

	item, err := service.Upsert(ctx, UpsertTeamInput{Name: "Real Madrid CF", LogoURL: "https://logo/rm.png"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if item.NameKey != "realmadridcf" {
		t.Fatalf("unexpected key: got=%q want=%q", item.NameKey, "realmadridcf")
	}
	if _, err := service.Upsert(ctx, UpsertTeamInput{Name: "X", LogoURL: "ftp://nope"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := service.Delete(ctx, "Real Madrid CF"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := service.Delete(ctx, "realmadridcf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := service.Search(ctx, "Alpha", ""); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable without resolver, got %v", err)
	}
}
