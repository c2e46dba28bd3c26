package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("get match: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("pq: relation matches does not exist")) {
		t.Fatalf("expected unrelated error to not be not found")
	}
}

func TestNullInt64ToIntPtr(t *testing.T) {
	t.Parallel()

	if got := nullInt64ToIntPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil for null, got %d", *got)
	}
	got := nullInt64ToIntPtr(sql.NullInt64{Int64: 3, Valid: true})
	if got == nil || *got != 3 {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestNullableTime(t *testing.T) {
	t.Parallel()

	zero := time.Time{}
	if nullableTime(&zero) != nil || nullableTime(nil) != nil {
		t.Fatalf("expected nil for empty time")
	}
	loc := time.FixedZone("WIB", 7*3600)
	at := time.Date(2026, 3, 1, 19, 0, 0, 0, loc)
	got := nullableTime(&at)
	if got == nil || got.Location() != time.UTC || !got.Equal(at) {
		t.Fatalf("unexpected normalized time: %v", got)
	}
}

func TestMatchRowRoundTrip(t *testing.T) {
	t.Parallel()

	s1, s2 := 2, 1
	kickoff := time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC)
	in := match.Match{
		ID:            "m-1",
		SourceMatchID: "premier_league_liverpool_bournemouth_2025-08-15",
		SourceURL:     "https://example.com/en.1.json",
		SourceKind:    match.SourceKindJSON,
		LeagueName:    "Premier League",
		Round:         "Matchday 1",
		Kickoff:       kickoff,
		Time:          "20:00",
		Team1:         match.Team{Name: "Liverpool FC"},
		Team2:         match.Team{Name: "AFC Bournemouth"},
		Score1:        &s1,
		Score2:        &s2,
		Status:        match.StatusFinished,
		StreamLinks: []match.StreamLink{
			{ID: "s1", URL: "https://stream.example.com/1", Type: match.StreamTypeHLS, Status: match.StreamLinkActive},
		},
	}

	row, err := matchInsertRow(in)
	if err != nil {
		t.Fatalf("build insert row: %v", err)
	}

	out, err := matchFromRow(matchTableModel{
		ID:            row.ID,
		SourceMatchID: row.SourceMatchID,
		SourceURL:     row.SourceURL,
		SourceKind:    row.SourceKind,
		LeagueName:    row.LeagueName,
		Round:         row.Round,
		KickoffAt:     row.KickoffAt,
		KickoffTime:   row.KickoffTime,
		Team1Name:     row.Team1Name,
		Team2Name:     row.Team2Name,
		Score1:        sql.NullInt64{Int64: int64(*row.Score1), Valid: true},
		Score2:        sql.NullInt64{Int64: int64(*row.Score2), Valid: true},
		Status:        row.Status,
		StreamLinks:   []byte(row.StreamLinks),
	})
	if err != nil {
		t.Fatalf("decode row: %v", err)
	}

	if out.Key() != in.Key() || !out.Kickoff.Equal(kickoff) || out.Status != match.StatusFinished {
		t.Fatalf("unexpected match: %+v", out)
	}
	if len(out.StreamLinks) != 1 || out.StreamLinks[0].Type != match.StreamTypeHLS {
		t.Fatalf("unexpected stream links: %+v", out.StreamLinks)
	}
	if *out.Score1 != 2 || *out.Score2 != 1 {
		t.Fatalf("unexpected score: %d-%d", *out.Score1, *out.Score2)
	}
}

func TestEncodeStreamLinks_EmptyIsJSONArray(t *testing.T) {
	t.Parallel()

	got, err := encodeStreamLinks(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != "[]" {
		t.Fatalf("unexpected encoding: got=%s want=[]", got)
	}
}
