package teamlogo

import "context"

type Repository interface {
	List(ctx context.Context) ([]ManagedTeam, error)
	GetByKey(ctx context.Context, nameKey string) (ManagedTeam, bool, error)
	Upsert(ctx context.Context, team ManagedTeam) error
	Delete(ctx context.Context, nameKey string) error
}
