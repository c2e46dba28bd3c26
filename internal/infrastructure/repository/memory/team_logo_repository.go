package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
)

type TeamLogoRepository struct {
	mu    sync.RWMutex
	items map[string]teamlogo.ManagedTeam
	order []string
}

func NewTeamLogoRepository() *TeamLogoRepository {
	return &TeamLogoRepository{items: make(map[string]teamlogo.ManagedTeam)}
}

func (r *TeamLogoRepository) List(_ context.Context) ([]teamlogo.ManagedTeam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]teamlogo.ManagedTeam, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.items[key])
	}
	return out, nil
}

func (r *TeamLogoRepository) GetByKey(_ context.Context, nameKey string) (teamlogo.ManagedTeam, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[nameKey]
	return item, ok, nil
}

func (r *TeamLogoRepository) Upsert(_ context.Context, team teamlogo.ManagedTeam) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[team.NameKey]; !exists {
		r.order = append(r.order, team.NameKey)
	}
	r.items[team.NameKey] = team
	return nil
}

func (r *TeamLogoRepository) Delete(_ context.Context, nameKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[nameKey]; !exists {
		return nil
	}
	delete(r.items, nameKey)
	for i, v := range r.order {
		if v == nameKey {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
