package feed

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

// TXTOptions describes a fixed-format TXT fixture list. The file carries no year
// or league name, so both come from the caller.
type TXTOptions struct {
	LeagueName string
	Year       int
	SourceURL  string
	Options
}

var (
	roundPattern       = regexp.MustCompile(`^(Â»|»)\s*(.*)`)
	dateLinePattern    = regexp.MustCompile(`(?i)^\s*(Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+(\w+)/(\d+)`)
	fixtureLinePattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}\.\d{2})\s+(.+?)\s+vs\.?\s+(.+?)\s*$`)
	countryCodePattern = regexp.MustCompile(`\s*\([A-Z]{2,3}\)\s*$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type txtState struct {
	round string
	date  *time.Time
}

// ParseTXT scans a TXT fixture list line by line. Round headers and date lines
// carry over to the fixtures below them. Bad lines become warnings.
func ParseTXT(content string, opts TXTOptions) Batch {
	base := opts.Options.normalize()
	leagueName := strings.TrimSpace(opts.LeagueName)
	batch := Batch{LeagueName: leagueName}

	var state txtState
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := roundPattern.FindStringSubmatch(line); m != nil {
			state.round = strings.TrimSpace(m[2])
			continue
		}

		if m := dateLinePattern.FindStringSubmatch(line); m != nil {
			day, ok := resolveDate(m[2], m[3], opts.Year, base.Location)
			if !ok {
				state.date = nil
				batch.Warnings = append(batch.Warnings, Warning{
					Code:    WarnInvalidDateLine,
					Message: fmt.Sprintf("cannot resolve date line %q", strings.TrimSpace(line)),
					Line:    lineNo,
				})
				continue
			}
			state.date = &day
			continue
		}

		m := fixtureLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if state.date == nil {
			batch.Warnings = append(batch.Warnings, Warning{
				Code:    WarnFixtureWithoutDate,
				Message: fmt.Sprintf("fixture %q appears before any date line", strings.TrimSpace(line)),
				Line:    lineNo,
			})
			continue
		}

		item, warn := txtFixture(m, state, leagueName, opts.SourceURL, base)
		if warn != nil {
			warn.Line = lineNo
			batch.Warnings = append(batch.Warnings, *warn)
			continue
		}
		batch.Matches = append(batch.Matches, item)
	}
	return batch
}

func txtFixture(m []string, state txtState, leagueName, sourceURL string, opts Options) (match.Match, *Warning) {
	hour, minute, ok := parseClock(m[1])
	if !ok {
		return match.Match{}, &Warning{
			Code:    WarnInvalidTime,
			Message: fmt.Sprintf("invalid kickoff time %q", m[1]),
		}
	}

	day := *state.date
	kickoff := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	team1 := stripCountryCode(m[2])
	team2 := stripCountryCode(m[3])
	display := fmt.Sprintf("%02d:%02d", hour, minute)

	sourceMatchID := strings.Join([]string{
		match.NameKey(leagueName),
		match.NameKey(team1),
		match.NameKey(team2),
		kickoff.Format("20060102"),
		kickoff.Format("1504"),
	}, "_")

	return match.Match{
		ID:            opts.NewID(),
		SourceMatchID: sourceMatchID,
		SourceURL:     sourceURL,
		SourceKind:    match.SourceKindTXT,
		LeagueName:    leagueName,
		Round:         state.round,
		Kickoff:       kickoff,
		Time:          display,
		Team1:         match.Team{Name: team1},
		Team2:         match.Team{Name: team2},
		Status:        match.StatusUpcoming,
		StreamLinks:   []match.StreamLink{},
	}, nil
}

func resolveDate(monthToken, dayToken string, year int, loc *time.Location) (time.Time, bool) {
	if len(monthToken) < 3 || year <= 0 {
		return time.Time{}, false
	}
	month, ok := monthsByPrefix[strings.ToLower(monthToken[:3])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayToken)
	if err != nil || day < 1 {
		return time.Time{}, false
	}
	out := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if out.Month() != month || out.Day() != day {
		return time.Time{}, false
	}
	return out, true
}

func parseClock(value string) (int, int, bool) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func stripCountryCode(name string) string {
	return strings.TrimSpace(countryCodePattern.ReplaceAllString(strings.TrimSpace(name), ""))
}
