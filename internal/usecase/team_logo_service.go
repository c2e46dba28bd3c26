package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

// LogoResolver finds a reachable logo URL for a team.
type LogoResolver interface {
	ResolveLogo(ctx context.Context, teamName, leagueName string) (string, bool, error)
}

type UpsertTeamInput struct {
	Name          string
	LogoURL       string
	LeagueContext string
}

type LogoDiscoveryResult struct {
	Checked int `json:"checked"`
	Found   int `json:"found"`
	Failed  int `json:"failed"`
}

type TeamLogoConfig struct {
	Workers int
}

type TeamLogoService struct {
	repo     teamlogo.Repository
	resolver LogoResolver
	cfg      TeamLogoConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewTeamLogoService(repo teamlogo.Repository, resolver LogoResolver, cfg TeamLogoConfig, logger *logging.Logger) *TeamLogoService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &TeamLogoService{
		repo:     repo,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TeamLogoService) List(ctx context.Context) ([]teamlogo.ManagedTeam, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list managed teams: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].NameKey < items[j].NameKey
	})
	return items, nil
}

func (s *TeamLogoService) Upsert(ctx context.Context, input UpsertTeamInput) (teamlogo.ManagedTeam, error) {
	name := strings.TrimSpace(input.Name)
	key := match.NameKey(name)
	if key == "" {
		return teamlogo.ManagedTeam{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	logoURL := strings.TrimSpace(input.LogoURL)
	if logoURL != "" {
		if err := validateSourceURL(logoURL); err != nil {
			return teamlogo.ManagedTeam{}, fmt.Errorf("%w: invalid logo url", ErrInvalidInput)
		}
	}

	item := teamlogo.ManagedTeam{
		NameKey:       key,
		DisplayName:   name,
		LogoURL:       logoURL,
		LeagueContext: strings.TrimSpace(input.LeagueContext),
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return teamlogo.ManagedTeam{}, fmt.Errorf("upsert managed team: %w", err)
	}
	return item, nil
}

func (s *TeamLogoService) Delete(ctx context.Context, nameKey string) error {
	nameKey = match.NameKey(nameKey)
	if nameKey == "" {
		return fmt.Errorf("%w: team key is required", ErrInvalidInput)
	}
	_, exists, err := s.repo.GetByKey(ctx, nameKey)
	if err != nil {
		return fmt.Errorf("get managed team: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, nameKey)
	}
	if err := s.repo.Delete(ctx, nameKey); err != nil {
		return fmt.Errorf("delete managed team: %w", err)
	}
	return nil
}

// Search probes the logo patterns for one team without storing anything.
func (s *TeamLogoService) Search(ctx context.Context, teamName, leagueName string) (string, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamLogoService.Search")
	defer span.End()

	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return "", false, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if s.resolver == nil {
		return "", false, fmt.Errorf("%w: logo resolver is not configured", ErrDependencyUnavailable)
	}
	logoURL, found, err := s.resolver.ResolveLogo(ctx, teamName, strings.TrimSpace(leagueName))
	if err != nil {
		return "", false, fmt.Errorf("%w: resolve logo: %v", ErrDependencyUnavailable, err)
	}
	return logoURL, found, nil
}

type discoveryTarget struct {
	key    string
	name   string
	league string
}

// DiscoverForMatches resolves and stores logos for teams that have no managed entry yet.
func (s *TeamLogoService) DiscoverForMatches(ctx context.Context, items []match.Match) (LogoDiscoveryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamLogoService.DiscoverForMatches")
	defer span.End()

	if s.resolver == nil || len(items) == 0 {
		return LogoDiscoveryResult{}, nil
	}

	managed, err := s.repo.List(ctx)
	if err != nil {
		return LogoDiscoveryResult{}, fmt.Errorf("list managed teams: %w", err)
	}
	known := make(map[string]struct{}, len(managed))
	for _, team := range managed {
		if strings.TrimSpace(team.LogoURL) != "" {
			known[team.NameKey] = struct{}{}
		}
	}

	targets := make([]discoveryTarget, 0)
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, team := range []match.Team{item.Team1, item.Team2} {
			key := match.NameKey(team.Name)
			if key == "" {
				continue
			}
			if _, ok := known[key]; ok {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			targets = append(targets, discoveryTarget{key: key, name: team.Name, league: item.LeagueName})
		}
	}
	if len(targets) == 0 {
		return LogoDiscoveryResult{}, nil
	}

	workerCount := s.cfg.Workers
	if workerCount > len(targets) {
		workerCount = len(targets)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return LogoDiscoveryResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var found atomic.Int32
	var failed atomic.Int32
	var workers sync.WaitGroup
	for _, target := range targets {
		target := target
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			logoURL, ok, err := s.resolver.ResolveLogo(ctx, target.name, target.league)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "resolve team logo failed", "team", target.name, "league", target.league, "error", err)
				return
			}
			if !ok {
				return
			}
			if err := s.repo.Upsert(ctx, teamlogo.ManagedTeam{
				NameKey:       target.key,
				DisplayName:   target.name,
				LogoURL:       logoURL,
				LeagueContext: target.league,
				UpdatedAt:     s.now().UTC(),
			}); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "store discovered team logo failed", "team", target.name, "error", err)
				return
			}
			found.Add(1)
		}); err != nil {
			workers.Done()
			return LogoDiscoveryResult{}, fmt.Errorf("submit logo lookup to worker pool: %w", err)
		}
	}
	workers.Wait()

	return LogoDiscoveryResult{
		Checked: len(targets),
		Found:   int(found.Load()),
		Failed:  int(failed.Load()),
	}, nil
}

// Decorate fills LogoURL on both teams: managed logo first, then a static guess.
func (s *TeamLogoService) Decorate(ctx context.Context, items []match.Match) []match.Match {
	managed, err := s.repo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list managed teams for decoration failed", "error", err)
		managed = nil
	}
	for i := range items {
		if items[i].Team1.LogoURL == "" {
			items[i].Team1.LogoURL = teamlogo.DisplayLogo(managed, items[i].Team1.Name, items[i].LeagueName)
		}
		if items[i].Team2.LogoURL == "" {
			items[i].Team2.LogoURL = teamlogo.DisplayLogo(managed, items[i].Team2.Name, items[i].LeagueName)
		}
	}
	return items
}
