package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
)

type FeedSourceRepository struct {
	mu    sync.RWMutex
	items map[string]feedsource.Source
	order []string
}

func NewFeedSourceRepository(seed []feedsource.Source) *FeedSourceRepository {
	r := &FeedSourceRepository{items: make(map[string]feedsource.Source, len(seed))}
	for _, item := range seed {
		r.order = append(r.order, item.ID)
		r.items[item.ID] = item
	}
	return r
}

func (r *FeedSourceRepository) List(_ context.Context) ([]feedsource.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feedsource.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *FeedSourceRepository) GetByID(_ context.Context, id string) (feedsource.Source, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *FeedSourceRepository) Upsert(_ context.Context, source feedsource.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[source.ID]; !exists {
		r.order = append(r.order, source.ID)
	}
	r.items[source.ID] = source
	return nil
}

func (r *FeedSourceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return nil
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *FeedSourceRepository) MarkImported(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("feed source %s not found", id)
	}
	at = at.UTC()
	item.LastImportedAt = &at
	r.items[id] = item
	return nil
}
