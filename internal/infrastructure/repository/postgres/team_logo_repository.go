package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	qb "github.com/riskibarqy/matchfeed/internal/platform/querybuilder"
)

type managedTeamModel struct {
	NameKey       string    `db:"name_key"`
	DisplayName   string    `db:"display_name"`
	LogoURL       string    `db:"logo_url"`
	LeagueContext string    `db:"league_context"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type TeamLogoRepository struct {
	db *sqlx.DB
}

func NewTeamLogoRepository(db *sqlx.DB) *TeamLogoRepository {
	return &TeamLogoRepository{db: db}
}

func (r *TeamLogoRepository) List(ctx context.Context) ([]teamlogo.ManagedTeam, error) {
	query, args, err := qb.Select("name_key", "display_name", "logo_url", "league_context", "updated_at").
		From("managed_teams").
		OrderBy("display_name", "name_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select managed teams query: %w", err)
	}

	var rows []managedTeamModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select managed teams: %w", err)
	}

	out := make([]teamlogo.ManagedTeam, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamlogo.ManagedTeam(row))
	}
	return out, nil
}

func (r *TeamLogoRepository) GetByKey(ctx context.Context, nameKey string) (teamlogo.ManagedTeam, bool, error) {
	query, args, err := qb.Select("name_key", "display_name", "logo_url", "league_context", "updated_at").
		From("managed_teams").
		Where(qb.Eq("name_key", nameKey)).
		Limit(1).
		ToSQL()
	if err != nil {
		return teamlogo.ManagedTeam{}, false, fmt.Errorf("build select managed team query: %w", err)
	}

	var row managedTeamModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamlogo.ManagedTeam{}, false, nil
		}
		return teamlogo.ManagedTeam{}, false, fmt.Errorf("get managed team: %w", err)
	}
	return teamlogo.ManagedTeam(row), true, nil
}

func (r *TeamLogoRepository) Upsert(ctx context.Context, team teamlogo.ManagedTeam) error {
	model := managedTeamModel(team)
	model.UpdatedAt = updatedAt(team.UpdatedAt)

	query, args, err := qb.InsertModel("managed_teams", model, `ON CONFLICT (name_key)
DO UPDATE SET
	display_name = EXCLUDED.display_name,
	logo_url = EXCLUDED.logo_url,
	league_context = EXCLUDED.league_context,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert managed team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert managed team: %w", err)
	}
	return nil
}

func (r *TeamLogoRepository) Delete(ctx context.Context, nameKey string) error {
	query, args, err := qb.DeleteFrom("managed_teams").Where(qb.Eq("name_key", nameKey)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete managed team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete managed team: %w", err)
	}
	return nil
}
