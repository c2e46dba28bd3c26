package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	qb "github.com/riskibarqy/matchfeed/internal/platform/querybuilder"
)

// insertChunkSize keeps multi-row inserts under the postgres bind parameter limit.
const insertChunkSize = 500

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	builder := qb.Select(matchColumns...).From("matches")
	if league := strings.TrimSpace(filter.LeagueName); league != "" {
		builder.Where(qb.Eq("league_name", league))
	}
	if filter.Status != "" {
		builder.Where(qb.Eq("status", string(filter.Status)))
	}
	if filter.IDs != nil {
		builder.Where(qb.In("id", stringsToAny(filter.IDs)))
	}

	query, args, err := builder.OrderBy("kickoff_at", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	item, err := matchFromRow(row)
	if err != nil {
		return match.Match{}, false, err
	}
	return item, true, nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	return r.InsertMany(ctx, []match.Match{m})
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) error {
	links, err := encodeStreamLinks(m.StreamLinks)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("matches").
		Set("source_match_id", m.SourceMatchID).
		Set("source_url", m.SourceURL).
		Set("source_kind", string(m.SourceKind)).
		Set("league_name", m.LeagueName).
		Set("round", m.Round).
		Set("group_name", m.Group).
		Set("kickoff_at", m.Kickoff.UTC()).
		Set("kickoff_time", m.Time).
		Set("team1_name", m.Team1.Name).
		Set("team1_code", m.Team1.Code).
		Set("team2_name", m.Team2.Name).
		Set("team2_code", m.Team2.Code).
		Set("score1", m.Score1).
		Set("score2", m.Score2).
		Set("status", string(m.Status)).
		SetExpr("stream_links", "?::jsonb", links).
		Set("updated_at", updatedAt(m.UpdatedAt)).
		Where(qb.Eq("id", m.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update match: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update match %s: not found", m.ID)
	}
	return nil
}

// InsertMany writes the whole batch in one transaction; a unique violation on
// (source_url, source_match_id) rolls back every row.
func (r *MatchRepository) InsertMany(ctx context.Context, items []match.Match) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert matches: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(items); start += insertChunkSize {
		end := min(start+insertChunkSize, len(items))
		rows := make([]matchInsertModel, 0, end-start)
		for _, item := range items[start:end] {
			row, err := matchInsertRow(item)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}

		query, args, err := qb.InsertModels("matches", rows, "")
		if err != nil {
			return fmt.Errorf("build insert matches query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert matches tx: %w", err)
	}
	return nil
}

func (r *MatchRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := qb.DeleteFrom("matches").
		Where(qb.In("id", stringsToAny(ids))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	return nil
}

func (r *MatchRepository) DeleteBySourceURLs(ctx context.Context, urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	query, args, err := qb.DeleteFrom("matches").
		Where(qb.In("source_url", stringsToAny(urls))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete matches by source query: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete matches by source: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected delete matches by source: %w", err)
	}
	return affected, nil
}

func (r *MatchRepository) ListSourceKeys(ctx context.Context) ([]match.SourceKey, error) {
	query, args, err := qb.Select("source_url", "source_match_id").From("matches").
		Where(qb.NotEq("source_match_id", "")).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match source keys query: %w", err)
	}
	return selectSourceKeys(ctx, r.db, query, args)
}

func (r *MatchRepository) ListSourceMatchIDsBySource(ctx context.Context, sourceURL string) ([]string, error) {
	query, args, err := qb.Select("source_match_id").From("matches").
		Where(qb.Eq("source_url", sourceURL), qb.NotEq("source_match_id", "")).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select source match ids query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select source match ids: %w", err)
	}
	return out, nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, ids []string, status match.Status) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := qb.Update("matches").
		Set("status", string(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.In("id", stringsToAny(ids))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match status query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return nil
}

func (r *MatchRepository) ClearStreamLinks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := qb.Update("matches").
		SetExpr("stream_links", "'[]'::jsonb").
		SetExpr("updated_at", "NOW()").
		Where(qb.In("id", stringsToAny(ids))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear stream links query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear stream links: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListLeagues(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("league_name").Distinct().From("matches").
		Where(qb.Expr("league_name <> ''")).
		OrderBy("league_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}
	return out, nil
}

// TombstoneRepository stores deleted_matches markers.
type TombstoneRepository struct {
	db *sqlx.DB
}

func NewTombstoneRepository(db *sqlx.DB) *TombstoneRepository {
	return &TombstoneRepository{db: db}
}

func (r *TombstoneRepository) ListKeys(ctx context.Context) ([]match.SourceKey, error) {
	query, args, err := qb.Select("source_url", "source_match_id").From("deleted_matches").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select deleted match keys query: %w", err)
	}
	return selectSourceKeys(ctx, r.db, query, args)
}

func (r *TombstoneRepository) ListSourceMatchIDsBySource(ctx context.Context, sourceURL string) ([]string, error) {
	query, args, err := qb.Select("source_match_id").From("deleted_matches").
		Where(qb.Eq("source_url", sourceURL)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select deleted source match ids query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select deleted source match ids: %w", err)
	}
	return out, nil
}

func (r *TombstoneRepository) UpsertMany(ctx context.Context, markers []match.DeletedMarker) error {
	if len(markers) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(markers))
	builder := qb.InsertInto("deleted_matches").Columns("source_url", "source_match_id", "deleted_at")
	for _, marker := range markers {
		if marker.SourceMatchID == "" {
			continue
		}
		key := marker.SourceKey.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		builder.Values(marker.SourceURL, marker.SourceMatchID, updatedAt(marker.DeletedAt))
	}
	if len(seen) == 0 {
		return nil
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (source_url, source_match_id) DO UPDATE SET deleted_at = EXCLUDED.deleted_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert deleted matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert deleted matches: %w", err)
	}
	return nil
}

func selectSourceKeys(ctx context.Context, db *sqlx.DB, query string, args []any) ([]match.SourceKey, error) {
	var rows []sourceKeyModel
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select source keys: %w", err)
	}
	out := make([]match.SourceKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.SourceKey{SourceURL: row.SourceURL, SourceMatchID: row.SourceMatchID})
	}
	return out, nil
}

func matchFromRow(row matchTableModel) (match.Match, error) {
	var links []match.StreamLink
	if len(row.StreamLinks) > 0 {
		if err := sonic.Unmarshal(row.StreamLinks, &links); err != nil {
			return match.Match{}, fmt.Errorf("decode stream links for match %s: %w", row.ID, err)
		}
	}

	return match.Match{
		ID:            row.ID,
		SourceMatchID: row.SourceMatchID,
		SourceURL:     row.SourceURL,
		SourceKind:    match.SourceKind(row.SourceKind),
		LeagueName:    row.LeagueName,
		Round:         row.Round,
		Group:         row.GroupName,
		Kickoff:       row.KickoffAt.UTC(),
		Time:          row.KickoffTime,
		Team1:         match.Team{Name: row.Team1Name, Code: row.Team1Code},
		Team2:         match.Team{Name: row.Team2Name, Code: row.Team2Code},
		Score1:        nullInt64ToIntPtr(row.Score1),
		Score2:        nullInt64ToIntPtr(row.Score2),
		Status:        match.Status(row.Status),
		StreamLinks:   links,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func matchInsertRow(m match.Match) (matchInsertModel, error) {
	links, err := encodeStreamLinks(m.StreamLinks)
	if err != nil {
		return matchInsertModel{}, err
	}
	kind := m.SourceKind
	if kind == "" {
		kind = match.SourceKindManual
	}
	createdAt := updatedAt(m.CreatedAt)

	return matchInsertModel{
		ID:            m.ID,
		SourceMatchID: m.SourceMatchID,
		SourceURL:     m.SourceURL,
		SourceKind:    string(kind),
		LeagueName:    m.LeagueName,
		Round:         m.Round,
		GroupName:     m.Group,
		KickoffAt:     m.Kickoff.UTC(),
		KickoffTime:   m.Time,
		Team1Name:     m.Team1.Name,
		Team1Code:     m.Team1.Code,
		Team2Name:     m.Team2.Name,
		Team2Code:     m.Team2.Code,
		Score1:        m.Score1,
		Score2:        m.Score2,
		Status:        string(m.Status),
		StreamLinks:   links,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

func encodeStreamLinks(links []match.StreamLink) (string, error) {
	if len(links) == 0 {
		return "[]", nil
	}
	raw, err := sonic.MarshalString(links)
	if err != nil {
		return "", fmt.Errorf("encode stream links: %w", err)
	}
	return raw, nil
}

func updatedAt(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value.UTC()
}
