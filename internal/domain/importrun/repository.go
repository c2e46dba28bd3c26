package importrun

import "context"

type Repository interface {
	Create(ctx context.Context, run Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	GetByID(ctx context.Context, id string) (Run, bool, error)
}
