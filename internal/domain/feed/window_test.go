package feed

import (
	"testing"
	"time"
)

func offset(v int) *int { return &v }

func TestDateWindowBoundaries(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 10, 30, 0, 0, time.UTC)
	w := NewDateWindow(now, offset(-1), offset(0), time.UTC)

	in := []time.Time{
		time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 16, 23, 59, 59, 0, time.UTC),
	}
	for _, ts := range in {
		if !w.Contains(ts) {
			t.Fatalf("expected %s inside window", ts)
		}
	}
	out := []time.Time{
		time.Date(2025, 8, 14, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 8, 17, 0, 0, 1, 0, time.UTC),
	}
	for _, ts := range out {
		if w.Contains(ts) {
			t.Fatalf("expected %s outside window", ts)
		}
	}
}

func TestDateWindowOpenBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 10, 30, 0, 0, time.UTC)
	w := NewDateWindow(now, nil, offset(7), time.UTC)
	if !w.Contains(time.Unix(0, 0)) {
		t.Fatalf("expected open start bound to accept epoch")
	}
	if w.Contains(time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected end bound to reject day 8")
	}
	if !NewDateWindow(now, nil, nil, nil).Unbounded() {
		t.Fatalf("expected unbounded window")
	}
}

func TestDateWindowUsesLocationForToday(t *testing.T) {
	t.Parallel()

	// 20:00 UTC is already the next day in UTC+7.
	now := time.Date(2025, 8, 16, 20, 0, 0, 0, time.UTC)
	loc := time.FixedZone("WIB", 7*3600)
	w := NewDateWindow(now, offset(0), offset(0), loc)
	if want := time.Date(2025, 8, 17, 0, 0, 0, 0, loc); !w.Start.Equal(want) {
		t.Fatalf("unexpected start: got=%s want=%s", w.Start, want)
	}
}
