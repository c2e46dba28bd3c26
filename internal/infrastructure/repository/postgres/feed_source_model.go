package postgres

import (
	"database/sql"
	"time"
)

type feedSourceTableModel struct {
	ID                        string        `db:"id"`
	Name                      string        `db:"name"`
	URL                       string        `db:"url"`
	Kind                      string        `db:"kind"`
	LeagueName                string        `db:"league_name"`
	SeasonYear                int           `db:"season_year"`
	ImportStartDateOffsetDays sql.NullInt64 `db:"import_start_date_offset_days"`
	ImportEndDateOffsetDays   sql.NullInt64 `db:"import_end_date_offset_days"`
	LastImportedAt            *time.Time    `db:"last_imported_at"`
	CreatedAt                 time.Time     `db:"created_at"`
	UpdatedAt                 time.Time     `db:"updated_at"`
}

type feedSourceInsertModel struct {
	ID                        string     `db:"id"`
	Name                      string     `db:"name"`
	URL                       string     `db:"url"`
	Kind                      string     `db:"kind"`
	LeagueName                string     `db:"league_name"`
	SeasonYear                int        `db:"season_year"`
	ImportStartDateOffsetDays *int       `db:"import_start_date_offset_days"`
	ImportEndDateOffsetDays   *int       `db:"import_end_date_offset_days"`
	LastImportedAt            *time.Time `db:"last_imported_at"`
	CreatedAt                 time.Time  `db:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at"`
}
