package match

import "context"

// Repository persists canonical matches.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Match, error)
	GetByID(ctx context.Context, id string) (Match, bool, error)
	Create(ctx context.Context, m Match) error
	Update(ctx context.Context, m Match) error
	InsertMany(ctx context.Context, items []Match) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteBySourceURLs(ctx context.Context, urls []string) (int64, error)
	ListSourceKeys(ctx context.Context) ([]SourceKey, error)
	ListSourceMatchIDsBySource(ctx context.Context, sourceURL string) ([]string, error)
	UpdateStatus(ctx context.Context, ids []string, status Status) error
	ClearStreamLinks(ctx context.Context, ids []string) error
	ListLeagues(ctx context.Context) ([]string, error)
}

// TombstoneRepository stores markers for deleted source-derived matches.
type TombstoneRepository interface {
	ListKeys(ctx context.Context) ([]SourceKey, error)
	ListSourceMatchIDsBySource(ctx context.Context, sourceURL string) ([]string, error)
	UpsertMany(ctx context.Context, markers []DeletedMarker) error
}
