package settings

import "context"

// Repository holds site-wide settings consulted by the match services.
type Repository interface {
	FeaturedMatchIDs(ctx context.Context) ([]string, error)
	SetFeaturedMatchIDs(ctx context.Context, ids []string) error
}
