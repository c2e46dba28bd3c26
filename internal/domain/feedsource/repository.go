package feedsource

import (
	"context"
	"time"
)

type Repository interface {
	List(ctx context.Context) ([]Source, error)
	GetByID(ctx context.Context, id string) (Source, bool, error)
	Upsert(ctx context.Context, source Source) error
	Delete(ctx context.Context, id string) error
	MarkImported(ctx context.Context, id string, at time.Time) error
}
