package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	qb "github.com/riskibarqy/matchfeed/internal/platform/querybuilder"
)

type importRunModel struct {
	ID          string    `db:"id"`
	Trigger     string    `db:"trigger"`
	Status      string    `db:"status"`
	Overwrite   bool      `db:"overwrite"`
	Added       int       `db:"added"`
	Skipped     int       `db:"skipped"`
	OutOfWindow int       `db:"out_of_window"`
	Sources     []byte    `db:"sources"`
	Errors      []byte    `db:"errors"`
	TraceID     string    `db:"trace_id"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
}

type ImportRunRepository struct {
	db *sqlx.DB
}

func NewImportRunRepository(db *sqlx.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

func (r *ImportRunRepository) Create(ctx context.Context, run importrun.Run) error {
	sources, err := sonic.MarshalString(nonNilSlice(run.Sources))
	if err != nil {
		return fmt.Errorf("encode import run sources: %w", err)
	}
	errs, err := sonic.MarshalString(nonNilSlice(run.Errors))
	if err != nil {
		return fmt.Errorf("encode import run errors: %w", err)
	}

	query, args, err := qb.InsertInto("import_runs").
		Columns("id", "trigger", "status", "overwrite", "added", "skipped", "out_of_window", "sources", "errors", "trace_id", "started_at", "finished_at").
		Values(
			run.ID,
			string(run.Trigger),
			string(run.Status),
			run.Overwrite,
			run.Added,
			run.Skipped,
			run.OutOfWindow,
			sources,
			errs,
			run.TraceID,
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert import run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

func (r *ImportRunRepository) List(ctx context.Context, limit int) ([]importrun.Run, error) {
	query, args, err := qb.Select("*").From("import_runs").
		OrderBy("started_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select import runs query: %w", err)
	}

	var rows []importRunModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select import runs: %w", err)
	}

	out := make([]importrun.Run, 0, len(rows))
	for _, row := range rows {
		run, err := importRunFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (r *ImportRunRepository) GetByID(ctx context.Context, id string) (importrun.Run, bool, error) {
	query, args, err := qb.Select("*").From("import_runs").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return importrun.Run{}, false, fmt.Errorf("build select import run query: %w", err)
	}

	var row importRunModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return importrun.Run{}, false, nil
		}
		return importrun.Run{}, false, fmt.Errorf("get import run: %w", err)
	}

	run, err := importRunFromRow(row)
	if err != nil {
		return importrun.Run{}, false, err
	}
	return run, true, nil
}

func importRunFromRow(row importRunModel) (importrun.Run, error) {
	run := importrun.Run{
		ID:          row.ID,
		Trigger:     importrun.Trigger(row.Trigger),
		Status:      importrun.Status(row.Status),
		Overwrite:   row.Overwrite,
		Added:       row.Added,
		Skipped:     row.Skipped,
		OutOfWindow: row.OutOfWindow,
		TraceID:     row.TraceID,
		StartedAt:   row.StartedAt,
		FinishedAt:  row.FinishedAt,
	}
	if len(row.Sources) > 0 {
		if err := sonic.Unmarshal(row.Sources, &run.Sources); err != nil {
			return importrun.Run{}, fmt.Errorf("decode import run %s sources: %w", row.ID, err)
		}
	}
	if len(row.Errors) > 0 {
		if err := sonic.Unmarshal(row.Errors, &run.Errors); err != nil {
			return importrun.Run{}, fmt.Errorf("decode import run %s errors: %w", row.ID, err)
		}
	}
	return run, nil
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
