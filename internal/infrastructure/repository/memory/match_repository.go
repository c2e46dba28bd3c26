package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

type MatchRepository struct {
	mu       sync.RWMutex
	byID     map[string]match.Match
	order    []string
	bySource map[string]string
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	r := &MatchRepository{
		byID:     make(map[string]match.Match, len(seed)),
		bySource: make(map[string]string, len(seed)),
	}
	for _, item := range seed {
		r.put(item)
	}
	return r
}

func (r *MatchRepository) put(item match.Match) {
	if _, exists := r.byID[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.byID[item.ID] = item.Clone()
	if item.SourceMatchID != "" {
		r.bySource[item.Key().String()] = item.ID
	}
}

func (r *MatchRepository) List(_ context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var only map[string]struct{}
	if filter.IDs != nil {
		only = make(map[string]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			only[id] = struct{}{}
		}
	}

	out := make([]match.Match, 0, len(r.order))
	for _, id := range r.order {
		item, ok := r.byID[id]
		if !ok {
			continue
		}
		if only != nil {
			if _, ok := only[id]; !ok {
				continue
			}
		}
		if filter.LeagueName != "" && item.LeagueName != filter.LeagueName {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	return r.InsertMany(ctx, []match.Match{m})
}

func (r *MatchRepository) Update(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[m.ID]
	if !ok {
		return fmt.Errorf("match %s not found", m.ID)
	}
	if current.SourceMatchID != "" {
		delete(r.bySource, current.Key().String())
	}
	r.put(m)
	return nil
}

// InsertMany is all-or-nothing, like the unique (source_url, source_match_id) index in postgres.
func (r *MatchRepository) InsertMany(_ context.Context, items []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, exists := r.byID[item.ID]; exists {
			return fmt.Errorf("duplicate match id %s", item.ID)
		}
		if item.SourceMatchID == "" {
			continue
		}
		key := item.Key().String()
		if _, exists := r.bySource[key]; exists {
			return fmt.Errorf("duplicate source key %s", key)
		}
		if _, exists := pending[key]; exists {
			return fmt.Errorf("duplicate source key %s in batch", key)
		}
		pending[key] = struct{}{}
	}
	for _, item := range items {
		r.put(item)
	}
	return nil
}

func (r *MatchRepository) DeleteByIDs(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		r.remove(id)
	}
	return nil
}

func (r *MatchRepository) DeleteBySourceURLs(_ context.Context, urls []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	targets := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		targets[u] = struct{}{}
	}
	var removed int64
	for _, id := range append([]string(nil), r.order...) {
		item, ok := r.byID[id]
		if !ok {
			continue
		}
		if _, hit := targets[item.SourceURL]; hit {
			r.remove(id)
			removed++
		}
	}
	return removed, nil
}

func (r *MatchRepository) remove(id string) {
	item, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if item.SourceMatchID != "" {
		delete(r.bySource, item.Key().String())
	}
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MatchRepository) ListSourceKeys(_ context.Context) ([]match.SourceKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.SourceKey, 0, len(r.bySource))
	for _, id := range r.order {
		item := r.byID[id]
		if item.SourceMatchID != "" {
			out = append(out, item.Key())
		}
	}
	return out, nil
}

func (r *MatchRepository) ListSourceMatchIDsBySource(_ context.Context, sourceURL string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, id := range r.order {
		item := r.byID[id]
		if item.SourceURL == sourceURL && item.SourceMatchID != "" {
			out = append(out, item.SourceMatchID)
		}
	}
	return out, nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, ids []string, status match.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if item, ok := r.byID[id]; ok {
			item.Status = status
			r.byID[id] = item
		}
	}
	return nil
}

func (r *MatchRepository) ClearStreamLinks(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if item, ok := r.byID[id]; ok {
			item.StreamLinks = []match.StreamLink{}
			r.byID[id] = item
		}
	}
	return nil
}

func (r *MatchRepository) ListLeagues(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, id := range r.order {
		name := r.byID[id].LeagueName
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

type TombstoneRepository struct {
	mu      sync.RWMutex
	markers map[string]match.DeletedMarker
	order   []string
}

func NewTombstoneRepository() *TombstoneRepository {
	return &TombstoneRepository{markers: make(map[string]match.DeletedMarker)}
}

func (r *TombstoneRepository) ListKeys(_ context.Context) ([]match.SourceKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.SourceKey, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.markers[key].SourceKey)
	}
	return out, nil
}

func (r *TombstoneRepository) ListSourceMatchIDsBySource(_ context.Context, sourceURL string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, key := range r.order {
		marker := r.markers[key]
		if marker.SourceURL == sourceURL {
			out = append(out, marker.SourceMatchID)
		}
	}
	return out, nil
}

func (r *TombstoneRepository) UpsertMany(_ context.Context, markers []match.DeletedMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, marker := range markers {
		key := marker.SourceKey.String()
		if _, exists := r.markers[key]; !exists {
			r.order = append(r.order, key)
		}
		r.markers[key] = marker
	}
	return nil
}
