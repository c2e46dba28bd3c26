package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/settings"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

type ListMatchesInput struct {
	LeagueName   string
	Status       match.Status
	FeaturedOnly bool
}

// MatchInput carries the editable fields of a match.
type MatchInput struct {
	LeagueName  string
	Round       string
	Group       string
	Kickoff     time.Time
	Time        string
	Team1       match.Team
	Team2       match.Team
	Score1      *int
	Score2      *int
	Status      match.Status
	StreamLinks []match.StreamLink
}

// TeamDecorator fills display logos on matches.
type TeamDecorator interface {
	Decorate(ctx context.Context, items []match.Match) []match.Match
}

type MatchService struct {
	matchRepo     match.Repository
	tombstoneRepo match.TombstoneRepository
	settingsRepo  settings.Repository
	decorator     TeamDecorator
	logger        *logging.Logger
	now           func() time.Time
	newID         func() string
}

func NewMatchService(
	matchRepo match.Repository,
	tombstoneRepo match.TombstoneRepository,
	settingsRepo settings.Repository,
	decorator TeamDecorator,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		matchRepo:     matchRepo,
		tombstoneRepo: tombstoneRepo,
		settingsRepo:  settingsRepo,
		decorator:     decorator,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

func (s *MatchService) List(ctx context.Context, input ListMatchesInput) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.List")
	defer span.End()

	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}

	featured, err := s.featuredSet(ctx)
	if err != nil {
		return nil, err
	}

	filter := match.Filter{
		LeagueName: strings.TrimSpace(input.LeagueName),
		Status:     input.Status,
	}
	if input.FeaturedOnly {
		if len(featured) == 0 {
			return []match.Match{}, nil
		}
		filter.IDs = make([]string, 0, len(featured))
		for id := range featured {
			filter.IDs = append(filter.IDs, id)
		}
	}

	items, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Kickoff.After(items[j].Kickoff)
	})
	for i := range items {
		_, items[i].IsFeatured = featured[items[i].ID]
	}
	return s.decorate(ctx, items), nil
}

func (s *MatchService) Get(ctx context.Context, id string) (match.Match, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return match.Match{}, err
	}
	featured, err := s.featuredSet(ctx)
	if err != nil {
		return match.Match{}, err
	}
	_, item.IsFeatured = featured[item.ID]
	return s.decorate(ctx, []match.Match{item})[0], nil
}

// Create stores a manually entered match.
func (s *MatchService) Create(ctx context.Context, input MatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Create")
	defer span.End()

	now := s.now().UTC()
	item := match.Match{
		ID:         s.newID(),
		SourceKind: match.SourceKindManual,
		CreatedAt:  now,
	}
	if err := s.apply(&item, input, now); err != nil {
		return match.Match{}, err
	}
	if err := s.matchRepo.Create(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}
	return item, nil
}

// Update replaces the editable fields of a match. Source identity is preserved.
func (s *MatchService) Update(ctx context.Context, id string, input MatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Update")
	defer span.End()

	item, err := s.get(ctx, id)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.apply(&item, input, s.now().UTC()); err != nil {
		return match.Match{}, err
	}
	if err := s.matchRepo.Update(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("update match: %w", err)
	}
	return item, nil
}

func (s *MatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	_, err := s.BulkDelete(ctx, []string{id})
	return err
}

// BulkDelete removes matches, tombstoning the source-derived ones first so later
// imports do not bring them back.
func (s *MatchService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.BulkDelete")
	defer span.End()

	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}

	items, err := s.matchRepo.List(ctx, match.Filter{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("list matches for delete: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	markers := make([]match.DeletedMarker, 0, len(items))
	found := make([]string, 0, len(items))
	for _, item := range items {
		found = append(found, item.ID)
		if item.FromSource() {
			markers = append(markers, match.DeletedMarker{SourceKey: item.Key(), DeletedAt: now})
		}
	}
	if len(markers) > 0 {
		if err := s.tombstoneRepo.UpsertMany(ctx, markers); err != nil {
			return 0, fmt.Errorf("record deleted matches: %w", err)
		}
	}
	if err := s.matchRepo.DeleteByIDs(ctx, found); err != nil {
		return 0, fmt.Errorf("delete matches: %w", err)
	}
	if err := s.removeFeatured(ctx, found); err != nil {
		s.logger.WarnContext(ctx, "remove deleted matches from featured failed", "error", err)
	}
	return len(found), nil
}

func (s *MatchService) BulkUpdateStatus(ctx context.Context, ids []string, status match.Status) (int, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if err := s.matchRepo.UpdateStatus(ctx, ids, status); err != nil {
		return 0, fmt.Errorf("update match status: %w", err)
	}
	return len(ids), nil
}

func (s *MatchService) BulkClearStreamLinks(ctx context.Context, ids []string) (int, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}
	if err := s.matchRepo.ClearStreamLinks(ctx, ids); err != nil {
		return 0, fmt.Errorf("clear stream links: %w", err)
	}
	return len(ids), nil
}

// ToggleFeatured flips the featured flag and returns the new state.
func (s *MatchService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return false, err
	}
	current, err := s.settingsRepo.FeaturedMatchIDs(ctx)
	if err != nil {
		return false, fmt.Errorf("get featured matches: %w", err)
	}

	next := make([]string, 0, len(current)+1)
	featured := true
	for _, v := range current {
		if v == item.ID {
			featured = false
			continue
		}
		next = append(next, v)
	}
	if featured {
		next = append(next, item.ID)
	}
	if err := s.settingsRepo.SetFeaturedMatchIDs(ctx, next); err != nil {
		return false, fmt.Errorf("set featured matches: %w", err)
	}
	return featured, nil
}

func (s *MatchService) ListLeagues(ctx context.Context) ([]string, error) {
	leagues, err := s.matchRepo.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	seen := make(map[string]struct{}, len(leagues))
	out := make([]string, 0, len(leagues))
	for _, v := range leagues {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MatchService) get(ctx context.Context, id string) (match.Match, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	item, exists, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, id)
	}
	return item, nil
}

func (s *MatchService) apply(item *match.Match, input MatchInput, now time.Time) error {
	input.LeagueName = strings.TrimSpace(input.LeagueName)
	input.Team1.Name = strings.TrimSpace(input.Team1.Name)
	input.Team2.Name = strings.TrimSpace(input.Team2.Name)

	switch {
	case input.LeagueName == "":
		return fmt.Errorf("%w: league name is required", ErrInvalidInput)
	case input.Team1.Name == "" || input.Team2.Name == "":
		return fmt.Errorf("%w: both team names are required", ErrInvalidInput)
	case input.Kickoff.IsZero():
		return fmt.Errorf("%w: kickoff is required", ErrInvalidInput)
	case (input.Score1 == nil) != (input.Score2 == nil):
		return fmt.Errorf("%w: scores must be set for both teams or neither", ErrInvalidInput)
	}
	if input.Status == "" {
		input.Status = match.StatusUpcoming
	}
	if !input.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}

	links := make([]match.StreamLink, 0, len(input.StreamLinks))
	for _, link := range input.StreamLinks {
		link.URL = strings.TrimSpace(link.URL)
		if link.URL == "" {
			return fmt.Errorf("%w: stream link url is required", ErrInvalidInput)
		}
		if link.ID == "" {
			link.ID = s.newID()
		}
		if link.Type == "" {
			link.Type = match.StreamTypeIframe
		}
		if link.Status == "" {
			link.Status = match.StreamLinkUnknown
		}
		links = append(links, link)
	}

	item.LeagueName = input.LeagueName
	item.Round = strings.TrimSpace(input.Round)
	item.Group = strings.TrimSpace(input.Group)
	item.Kickoff = input.Kickoff.UTC()
	item.Time = strings.TrimSpace(input.Time)
	item.Team1 = input.Team1
	item.Team2 = input.Team2
	item.Score1 = input.Score1
	item.Score2 = input.Score2
	item.Status = input.Status
	item.StreamLinks = links
	item.UpdatedAt = now
	return nil
}

func (s *MatchService) featuredSet(ctx context.Context) (map[string]struct{}, error) {
	if s.settingsRepo == nil {
		return map[string]struct{}{}, nil
	}
	ids, err := s.settingsRepo.FeaturedMatchIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get featured matches: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *MatchService) removeFeatured(ctx context.Context, ids []string) error {
	if s.settingsRepo == nil {
		return nil
	}
	current, err := s.settingsRepo.FeaturedMatchIDs(ctx)
	if err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	next := make([]string, 0, len(current))
	for _, id := range current {
		if _, ok := drop[id]; !ok {
			next = append(next, id)
		}
	}
	if len(next) == len(current) {
		return nil
	}
	return s.settingsRepo.SetFeaturedMatchIDs(ctx, next)
}

func (s *MatchService) decorate(ctx context.Context, items []match.Match) []match.Match {
	if s.decorator == nil || len(items) == 0 {
		return items
	}
	return s.decorator.Decorate(ctx, items)
}

func cleanIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
