package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
)

// ImportRunRepository keeps the most recent runs, newest first.
type ImportRunRepository struct {
	mu       sync.RWMutex
	runs     []importrun.Run
	capacity int
}

func NewImportRunRepository(capacity int) *ImportRunRepository {
	if capacity <= 0 {
		capacity = 200
	}
	return &ImportRunRepository{capacity: capacity}
}

func (r *ImportRunRepository) Create(_ context.Context, run importrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append([]importrun.Run{run}, r.runs...)
	if len(r.runs) > r.capacity {
		r.runs = r.runs[:r.capacity]
	}
	return nil
}

func (r *ImportRunRepository) List(_ context.Context, limit int) ([]importrun.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]importrun.Run, limit)
	copy(out, r.runs[:limit])
	return out, nil
}

func (r *ImportRunRepository) GetByID(_ context.Context, id string) (importrun.Run, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.ID == id {
			return run, true, nil
		}
	}
	return importrun.Run{}, false, nil
}
