package feed

import "time"

// DateWindow bounds kickoff instants. A nil bound is open.
type DateWindow struct {
	Start *time.Time
	End   *time.Time
}

// NewDateWindow builds [today+start 00:00, today+end 23:59:59.999999999] in loc.
func NewDateWindow(now time.Time, startOffsetDays, endOffsetDays *int, loc *time.Location) DateWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var w DateWindow
	if startOffsetDays != nil {
		start := today.AddDate(0, 0, *startOffsetDays)
		w.Start = &start
	}
	if endOffsetDays != nil {
		end := today.AddDate(0, 0, *endOffsetDays+1).Add(-time.Nanosecond)
		w.End = &end
	}
	return w
}

func (w DateWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

func (w DateWindow) Unbounded() bool {
	return w.Start == nil && w.End == nil
}
