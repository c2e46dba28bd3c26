package match

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Premier League ":     "premier-league",
		"Man. United & Co":      "man-united-co",
		"Atlético  Madrid":      "atltico-madrid",
		"already-slugged--name": "already-slugged-name",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("unexpected slug for %q: got=%q want=%q", in, got, want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	m := Match{
		ID:         "abc",
		LeagueName: "Serie A",
		Team1:      Team{Name: "AC Milan"},
		Team2:      Team{Name: "Inter"},
	}
	if got, want := Path(m), "/match/serie-a/ac-milan-vs-inter/abc"; got != want {
		t.Fatalf("unexpected path: got=%q want=%q", got, want)
	}
}

func TestSourceKeyString(t *testing.T) {
	t.Parallel()

	key := SourceKey{SourceURL: "https://feed/x.json", SourceMatchID: "A_B_C"}
	if got, want := key.String(), "https://feed/x.json::A_B_C"; got != want {
		t.Fatalf("unexpected key: got=%q want=%q", got, want)
	}
}

func TestCloneDetachesPointers(t *testing.T) {
	t.Parallel()

	one, two := 1, 2
	m := Match{Score1: &one, Score2: &two, StreamLinks: []StreamLink{{ID: "s1"}}}
	c := m.Clone()
	*c.Score1 = 9
	c.StreamLinks[0].ID = "changed"

	if *m.Score1 != 1 {
		t.Fatalf("unexpected source score mutation: got=%d want=1", *m.Score1)
	}
	if m.StreamLinks[0].ID != "s1" {
		t.Fatalf("unexpected stream link mutation: got=%s", m.StreamLinks[0].ID)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	if !StatusPostponed.Valid() {
		t.Fatalf("expected Postponed to be valid")
	}
	if Status("Halftime").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}
