package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
)

type UpsertSourceInput struct {
	ID                        string
	Name                      string
	URL                       string
	Kind                      feedsource.Kind
	LeagueName                string
	Year                      int
	ImportStartDateOffsetDays *int
	ImportEndDateOffsetDays   *int
}

type FeedSourceService struct {
	repo  feedsource.Repository
	now   func() time.Time
	newID func() string
}

func NewFeedSourceService(repo feedsource.Repository) *FeedSourceService {
	return &FeedSourceService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *FeedSourceService) List(ctx context.Context) ([]feedsource.Source, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

func (s *FeedSourceService) Get(ctx context.Context, id string) (feedsource.Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return feedsource.Source{}, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}
	item, exists, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return feedsource.Source{}, fmt.Errorf("get feed source: %w", err)
	}
	if !exists {
		return feedsource.Source{}, fmt.Errorf("%w: source=%s", ErrNotFound, id)
	}
	return item, nil
}

func (s *FeedSourceService) Upsert(ctx context.Context, input UpsertSourceInput) (feedsource.Source, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedSourceService.Upsert")
	defer span.End()

	item := feedsource.Source{
		ID:                        strings.TrimSpace(input.ID),
		Name:                      strings.TrimSpace(input.Name),
		URL:                       strings.TrimSpace(input.URL),
		Kind:                      feedsource.Kind(strings.ToLower(strings.TrimSpace(string(input.Kind)))),
		LeagueName:                strings.TrimSpace(input.LeagueName),
		Year:                      input.Year,
		ImportStartDateOffsetDays: input.ImportStartDateOffsetDays,
		ImportEndDateOffsetDays:   input.ImportEndDateOffsetDays,
	}
	if item.Kind == "" {
		item.Kind = feedsource.KindJSON
	}
	if err := validateSource(item); err != nil {
		return feedsource.Source{}, err
	}

	now := s.now().UTC()
	item.UpdatedAt = now
	if item.ID == "" {
		item.ID = s.newID()
		item.CreatedAt = now
	} else {
		current, exists, err := s.repo.GetByID(ctx, item.ID)
		if err != nil {
			return feedsource.Source{}, fmt.Errorf("get feed source: %w", err)
		}
		if !exists {
			return feedsource.Source{}, fmt.Errorf("%w: source=%s", ErrNotFound, item.ID)
		}
		item.CreatedAt = current.CreatedAt
		item.LastImportedAt = current.LastImportedAt
	}

	if err := s.repo.Upsert(ctx, item); err != nil {
		return feedsource.Source{}, fmt.Errorf("upsert feed source: %w", err)
	}
	return item, nil
}

func (s *FeedSourceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("delete feed source: %w", err)
	}
	return nil
}

func validateSource(item feedsource.Source) error {
	if item.Name == "" {
		return fmt.Errorf("%w: source name is required", ErrInvalidInput)
	}
	if err := validateSourceURL(item.URL); err != nil {
		return err
	}
	if !item.Kind.Valid() {
		return fmt.Errorf("%w: unsupported source kind %q", ErrInvalidInput, item.Kind)
	}
	if item.Kind == feedsource.KindTXT {
		if item.LeagueName == "" {
			return fmt.Errorf("%w: league name is required for txt sources", ErrInvalidInput)
		}
		if item.Year < 1900 || item.Year > 2200 {
			return fmt.Errorf("%w: year must be between 1900 and 2200 for txt sources", ErrInvalidInput)
		}
	}
	return validateOffsets(item.ImportStartDateOffsetDays, item.ImportEndDateOffsetDays)
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: source url is required", ErrInvalidInput)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid source url: %v", ErrInvalidInput, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: source url must use http or https", ErrInvalidInput)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%w: source url host is required", ErrInvalidInput)
	}
	return nil
}

func validateOffsets(start, end *int) error {
	if start != nil && end != nil && *start > *end {
		return fmt.Errorf("%w: start offset must not be after end offset", ErrInvalidInput)
	}
	return nil
}
