package feed

import (
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

const DefaultLiveWindow = 4 * time.Hour

// InferStatus derives a status from the score and kickoff only. It never yields
// Postponed or Cancelled; those are set by administrators.
func InferStatus(score Score, kickoff, now time.Time, liveWindow time.Duration) match.Status {
	if score.Resolvable() {
		return match.StatusFinished
	}
	if kickoff.After(now) {
		return match.StatusUpcoming
	}
	if liveWindow <= 0 {
		liveWindow = DefaultLiveWindow
	}
	if !kickoff.Before(now.Add(-liveWindow)) {
		return match.StatusLive
	}
	return match.StatusUpcoming
}
