package feed

import (
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

const sampleTXT = `= English Premier League 2025/26

19.00 Stray FC vs Nowhere United
» Matchday 1
  Fri Aug/15
    20.00  Liverpool FC (ENG)   v  AFC Bournemouth (ENG)
    20.00  Liverpool FC (ENG)   vs AFC Bournemouth (ENG)
  Sat Aug/16
    12.30  Aston Villa FC       vs. Newcastle United FC
    25.10  Broken Time FC       vs Clock FC
Â» Matchday 2
  Fri Aug/22
    20.00  West Ham United FC   vs Chelsea FC
  Sun Foo/31
    14.00  Lost FC              vs Nowhere FC
`

func TestParseTXTCarriesRoundAndDate(t *testing.T) {
	t.Parallel()

	batch := ParseTXT(sampleTXT, TXTOptions{
		LeagueName: "English Premier League",
		Year:       2025,
		SourceURL:  "https://raw/eng.txt",
		Options:    fixedOptions(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
	})

	if len(batch.Matches) != 3 {
		t.Fatalf("unexpected match count: got=%d want=3 (%+v)", len(batch.Matches), batch.Matches)
	}

	first := batch.Matches[0]
	if first.Team1.Name != "Liverpool FC" || first.Team2.Name != "AFC Bournemouth" {
		t.Fatalf("unexpected teams: got=%q vs %q", first.Team1.Name, first.Team2.Name)
	}
	if want := time.Date(2025, 8, 15, 20, 0, 0, 0, time.UTC); !first.Kickoff.Equal(want) {
		t.Fatalf("unexpected kickoff: got=%s want=%s", first.Kickoff, want)
	}
	if want := "englishpremierleague_liverpoolfc_afcbournemouth_20250815_2000"; first.SourceMatchID != want {
		t.Fatalf("unexpected source id: got=%q want=%q", first.SourceMatchID, want)
	}
	if first.Round != "Matchday 1" || first.Time != "20:00" || first.Status != match.StatusUpcoming {
		t.Fatalf("unexpected fields: round=%q time=%q status=%s", first.Round, first.Time, first.Status)
	}
	if first.SourceKind != match.SourceKindTXT || first.SourceURL != "https://raw/eng.txt" {
		t.Fatalf("unexpected source: %s %s", first.SourceKind, first.SourceURL)
	}

	third := batch.Matches[2]
	if third.Round != "Matchday 2" {
		t.Fatalf("unexpected round after second header: got=%q want=%q", third.Round, "Matchday 2")
	}
	if want := time.Date(2025, 8, 22, 20, 0, 0, 0, time.UTC); !third.Kickoff.Equal(want) {
		t.Fatalf("unexpected kickoff after second date: got=%s want=%s", third.Kickoff, want)
	}
}

func TestParseTXTConsecutiveRoundHeaders(t *testing.T) {
	t.Parallel()

	content := "» Matchday 1\n» Matchday 2\n  Sat Aug/23\n    15.00  Everton FC  vs  Brighton FC\n"
	batch := ParseTXT(content, TXTOptions{
		LeagueName: "English Premier League",
		Year:       2025,
		Options:    fixedOptions(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
	})

	if len(batch.Matches) != 1 {
		t.Fatalf("unexpected match count: got=%d want=1", len(batch.Matches))
	}
	got := batch.Matches[0]
	if got.Round != "Matchday 2" {
		t.Fatalf("unexpected round: got=%q want=%q", got.Round, "Matchday 2")
	}
	if want := time.Date(2025, 8, 23, 15, 0, 0, 0, time.UTC); !got.Kickoff.Equal(want) {
		t.Fatalf("unexpected kickoff: got=%s want=%s", got.Kickoff, want)
	}
}

func TestParseTXTWarnings(t *testing.T) {
	t.Parallel()

	batch := ParseTXT(sampleTXT, TXTOptions{LeagueName: "EPL", Year: 2025, Options: fixedOptions(time.Now())})

	codes := map[string]int{}
	for _, w := range batch.Warnings {
		codes[w.Code]++
	}
	// one fixture before the first date line, one after the unresolvable date line
	if codes[WarnFixtureWithoutDate] != 2 {
		t.Fatalf("unexpected fixture_without_date count: got=%d want=2", codes[WarnFixtureWithoutDate])
	}
	if codes[WarnInvalidTime] != 1 {
		t.Fatalf("unexpected invalid_time count: got=%d want=1", codes[WarnInvalidTime])
	}
	if codes[WarnInvalidDateLine] != 1 {
		t.Fatalf("unexpected invalid_date_line count: got=%d want=1", codes[WarnInvalidDateLine])
	}
	for _, w := range batch.Warnings {
		if w.Line == 0 {
			t.Fatalf("expected line number on warning %+v", w)
		}
	}
}

func TestParseTXTUsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	batch := ParseTXT("Sat Aug/16\n15.00 A vs B\n", TXTOptions{
		LeagueName: "L",
		Year:       2025,
		Options:    Options{Location: loc},
	})
	if len(batch.Matches) != 1 {
		t.Fatalf("unexpected match count: got=%d want=1", len(batch.Matches))
	}
	if want := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC); !batch.Matches[0].Kickoff.Equal(want) {
		t.Fatalf("unexpected kickoff: got=%s want=%s", batch.Matches[0].Kickoff.UTC(), want)
	}
}
