package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            string        `db:"id"`
	SourceMatchID string        `db:"source_match_id"`
	SourceURL     string        `db:"source_url"`
	SourceKind    string        `db:"source_kind"`
	LeagueName    string        `db:"league_name"`
	Round         string        `db:"round"`
	GroupName     string        `db:"group_name"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	KickoffTime   string        `db:"kickoff_time"`
	Team1Name     string        `db:"team1_name"`
	Team1Code     string        `db:"team1_code"`
	Team2Name     string        `db:"team2_name"`
	Team2Code     string        `db:"team2_code"`
	Score1        sql.NullInt64 `db:"score1"`
	Score2        sql.NullInt64 `db:"score2"`
	Status        string        `db:"status"`
	StreamLinks   []byte        `db:"stream_links"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type matchInsertModel struct {
	ID            string    `db:"id"`
	SourceMatchID string    `db:"source_match_id"`
	SourceURL     string    `db:"source_url"`
	SourceKind    string    `db:"source_kind"`
	LeagueName    string    `db:"league_name"`
	Round         string    `db:"round"`
	GroupName     string    `db:"group_name"`
	KickoffAt     time.Time `db:"kickoff_at"`
	KickoffTime   string    `db:"kickoff_time"`
	Team1Name     string    `db:"team1_name"`
	Team1Code     string    `db:"team1_code"`
	Team2Name     string    `db:"team2_name"`
	Team2Code     string    `db:"team2_code"`
	Score1        *int      `db:"score1"`
	Score2        *int      `db:"score2"`
	Status        string    `db:"status"`
	StreamLinks   string    `db:"stream_links"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type sourceKeyModel struct {
	SourceURL     string `db:"source_url"`
	SourceMatchID string `db:"source_match_id"`
}

var matchColumns = []string{
	"id",
	"source_match_id",
	"source_url",
	"source_kind",
	"league_name",
	"round",
	"group_name",
	"kickoff_at",
	"kickoff_time",
	"team1_name",
	"team1_code",
	"team2_name",
	"team2_code",
	"score1",
	"score2",
	"status",
	"stream_links",
	"created_at",
	"updated_at",
}
