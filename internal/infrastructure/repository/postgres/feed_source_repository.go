package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
	qb "github.com/riskibarqy/matchfeed/internal/platform/querybuilder"
)

type FeedSourceRepository struct {
	db *sqlx.DB
}

func NewFeedSourceRepository(db *sqlx.DB) *FeedSourceRepository {
	return &FeedSourceRepository{db: db}
}

func (r *FeedSourceRepository) List(ctx context.Context) ([]feedsource.Source, error) {
	query, args, err := qb.Select("*").From("feed_sources").
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select feed sources query: %w", err)
	}

	var rows []feedSourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select feed sources: %w", err)
	}

	out := make([]feedsource.Source, 0, len(rows))
	for _, row := range rows {
		out = append(out, feedSourceFromRow(row))
	}
	return out, nil
}

func (r *FeedSourceRepository) GetByID(ctx context.Context, id string) (feedsource.Source, bool, error) {
	query, args, err := qb.Select("*").From("feed_sources").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return feedsource.Source{}, false, fmt.Errorf("build select feed source query: %w", err)
	}

	var row feedSourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return feedsource.Source{}, false, nil
		}
		return feedsource.Source{}, false, fmt.Errorf("get feed source: %w", err)
	}
	return feedSourceFromRow(row), true, nil
}

func (r *FeedSourceRepository) Upsert(ctx context.Context, source feedsource.Source) error {
	model := feedSourceInsertModel{
		ID:                        source.ID,
		Name:                      source.Name,
		URL:                       source.URL,
		Kind:                      string(source.Kind),
		LeagueName:                source.LeagueName,
		SeasonYear:                source.Year,
		ImportStartDateOffsetDays: source.ImportStartDateOffsetDays,
		ImportEndDateOffsetDays:   source.ImportEndDateOffsetDays,
		LastImportedAt:            nullableTime(source.LastImportedAt),
		CreatedAt:                 updatedAt(source.CreatedAt),
		UpdatedAt:                 updatedAt(source.UpdatedAt),
	}

	query, args, err := qb.InsertModel("feed_sources", model, `ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	url = EXCLUDED.url,
	kind = EXCLUDED.kind,
	league_name = EXCLUDED.league_name,
	season_year = EXCLUDED.season_year,
	import_start_date_offset_days = EXCLUDED.import_start_date_offset_days,
	import_end_date_offset_days = EXCLUDED.import_end_date_offset_days,
	last_imported_at = EXCLUDED.last_imported_at,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert feed source query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert feed source: %w", err)
	}
	return nil
}

func (r *FeedSourceRepository) Delete(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("feed_sources").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete feed source query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete feed source: %w", err)
	}
	return nil
}

func (r *FeedSourceRepository) MarkImported(ctx context.Context, id string, at time.Time) error {
	query, args, err := qb.Update("feed_sources").
		Set("last_imported_at", at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark feed source imported query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark feed source imported: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected mark feed source imported: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark feed source %s imported: not found", id)
	}
	return nil
}

func feedSourceFromRow(row feedSourceTableModel) feedsource.Source {
	return feedsource.Source{
		ID:                        row.ID,
		Name:                      row.Name,
		URL:                       row.URL,
		Kind:                      feedsource.Kind(row.Kind),
		LeagueName:                row.LeagueName,
		Year:                      row.SeasonYear,
		ImportStartDateOffsetDays: nullInt64ToIntPtr(row.ImportStartDateOffsetDays),
		ImportEndDateOffsetDays:   nullInt64ToIntPtr(row.ImportEndDateOffsetDays),
		LastImportedAt:            row.LastImportedAt,
		CreatedAt:                 row.CreatedAt,
		UpdatedAt:                 row.UpdatedAt,
	}
}
