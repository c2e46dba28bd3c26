package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	qb "github.com/riskibarqy/matchfeed/internal/platform/querybuilder"
)

const featuredMatchesKey = "featured_match_ids"

// SettingsRepository keeps site settings as jsonb values keyed by name.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) FeaturedMatchIDs(ctx context.Context) ([]string, error) {
	var ids []string
	found, err := r.get(ctx, featuredMatchesKey, &ids)
	if err != nil {
		return nil, err
	}
	if !found {
		return []string{}, nil
	}
	return ids, nil
}

func (r *SettingsRepository) SetFeaturedMatchIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return r.put(ctx, featuredMatchesKey, ids)
}

func (r *SettingsRepository) get(ctx context.Context, key string, dst any) (bool, error) {
	query, args, err := qb.Select("value").From("app_settings").
		Where(qb.Eq("key", key)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build select setting query: %w", err)
	}

	var raw []byte
	if err := r.db.GetContext(ctx, &raw, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (r *SettingsRepository) put(ctx context.Context, key string, value any) error {
	raw, err := sonic.MarshalString(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	query, args, err := qb.InsertInto("app_settings").
		Columns("key", "value").
		Values(key, raw).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert setting query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
