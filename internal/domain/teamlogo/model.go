package teamlogo

import (
	"strings"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

// ManagedTeam is an administrator-curated (or discovered) team logo.
type ManagedTeam struct {
	NameKey       string
	DisplayName   string
	LogoURL       string
	LeagueContext string
	UpdatedAt     time.Time
}

// Lookup finds the managed entry for a team, preferring one recorded for the same league.
func Lookup(teams []ManagedTeam, teamName, leagueName string) (ManagedTeam, bool) {
	key := match.NameKey(teamName)
	if key == "" {
		return ManagedTeam{}, false
	}
	leagueKey := match.NameKey(leagueName)

	var fallback *ManagedTeam
	for i := range teams {
		if teams[i].NameKey != key || strings.TrimSpace(teams[i].LogoURL) == "" {
			continue
		}
		if leagueKey != "" && match.NameKey(teams[i].LeagueContext) == leagueKey {
			return teams[i], true
		}
		if fallback == nil {
			fallback = &teams[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ManagedTeam{}, false
}

// DisplayLogo returns the managed logo when known, otherwise a static guess.
func DisplayLogo(teams []ManagedTeam, teamName, leagueName string) string {
	if managed, ok := Lookup(teams, teamName, leagueName); ok {
		return managed.LogoURL
	}
	return Guess(teamName, leagueName)
}
