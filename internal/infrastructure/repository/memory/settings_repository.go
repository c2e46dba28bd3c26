package memory

import (
	"context"
	"sync"
)

type SettingsRepository struct {
	mu       sync.RWMutex
	featured []string
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) FeaturedMatchIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.featured...), nil
}

func (r *SettingsRepository) SetFeaturedMatchIDs(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.featured = append([]string{}, ids...)
	return nil
}
