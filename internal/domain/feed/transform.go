package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

const UnknownLeague = "Unknown League"

const (
	WarnInvalidDate        = "invalid_date"
	WarnInvalidDateLine    = "invalid_date_line"
	WarnInvalidTime        = "invalid_time"
	WarnFixtureWithoutDate = "fixture_without_date"
	WarnInvalidRecord      = "invalid_record"
)

var ErrMalformedFeed = errors.New("malformed feed")

// Warning is a non-fatal problem found while turning raw input into matches.
type Warning struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Line          int    `json:"line,omitempty"`
	SourceMatchID string `json:"sourceMatchId,omitempty"`
}

// Options carries the environment a transformation runs in.
type Options struct {
	Now        func() time.Time
	LiveWindow time.Duration
	Location   *time.Location
	NewID      func() string
}

func (o Options) normalize() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.LiveWindow <= 0 {
		o.LiveWindow = DefaultLiveWindow
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

type Result struct {
	Match    match.Match
	Warnings []Warning
}

// Batch is the output of parsing one feed document.
type Batch struct {
	LeagueName string
	Matches    []match.Match
	Warnings   []Warning
}

var (
	bareDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	clockPattern      = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func NormalizeTeam(raw RawTeam) match.Team {
	return match.Team{
		Name: strings.TrimSpace(raw.Name),
		Code: strings.TrimSpace(raw.Code),
	}
}

// Transform maps one raw JSON record into a canonical match. It never fails:
// an unparseable date falls back to the Unix epoch and is reported as a warning.
func Transform(raw RawMatch, leagueName, sourceURL string, opts Options) Result {
	opts = opts.normalize()
	now := opts.Now()

	team1 := NormalizeTeam(raw.Team1)
	team2 := NormalizeTeam(raw.Team2)
	score := ClassifyScore(raw.Score, raw.Score1, raw.Score2)
	score1, score2 := score.Resolve()

	sourceMatchID := whitespacePattern.ReplaceAllString(
		fmt.Sprintf("%s_%s_%s_%s", leagueName, team1.Name, team2.Name, raw.Date), "_")

	var warnings []Warning
	kickoff, ok := ParseKickoff(raw.Date, raw.Time, opts.Location)
	if !ok {
		warnings = append(warnings, Warning{
			Code:          WarnInvalidDate,
			Message:       fmt.Sprintf("unparseable date %q time %q, using epoch", raw.Date, raw.Time),
			SourceMatchID: sourceMatchID,
		})
	}

	return Result{
		Match: match.Match{
			ID:            opts.NewID(),
			SourceMatchID: sourceMatchID,
			SourceURL:     sourceURL,
			SourceKind:    match.SourceKindJSON,
			LeagueName:    leagueName,
			Round:         strings.TrimSpace(raw.Round),
			Group:         strings.TrimSpace(raw.Group),
			Kickoff:       kickoff,
			Time:          strings.TrimSpace(raw.Time),
			Team1:         team1,
			Team2:         team2,
			Score1:        score1,
			Score2:        score2,
			Status:        InferStatus(score, kickoff, now, opts.LiveWindow),
			StreamLinks:   []match.StreamLink{},
		},
		Warnings: warnings,
	}
}

// ParseKickoff combines a feed date and time into an instant. The second return
// value is false when the epoch fallback was used.
func ParseKickoff(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	candidate := date
	if bareDatePattern.MatchString(date) && clockPattern.MatchString(clock) {
		candidate = date + "T" + clock
		if len(clock) == 5 {
			candidate += ":00"
		}
	}

	if ts, ok := parseTimestamp(candidate, loc); ok {
		return ts, true
	}
	if datePrefixPattern.MatchString(date) {
		if ts, ok := parseTimestamp(date[:10], loc); ok {
			return ts, true
		}
	}
	return time.Unix(0, 0).UTC(), false
}

func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseJSON decodes a JSON feed document and transforms every record in it.
func ParseJSON(content []byte, sourceURL string, opts Options) (Batch, error) {
	var doc RawMatchData
	if err := sonic.Unmarshal(content, &doc); err != nil {
		return Batch{}, fmt.Errorf("%w: decode json feed: %v", ErrMalformedFeed, err)
	}
	if doc.Matches == nil {
		return Batch{}, fmt.Errorf("%w: json feed has no matches array", ErrMalformedFeed)
	}

	leagueName := strings.TrimSpace(doc.Name)
	if leagueName == "" {
		leagueName = UnknownLeague
	}

	opts = opts.normalize()
	batch := Batch{
		LeagueName: leagueName,
		Matches:    make([]match.Match, 0, len(doc.Matches)),
	}
	for i, record := range doc.Matches {
		raw, err := decodeRecord(record)
		if err != nil {
			batch.Warnings = append(batch.Warnings, Warning{
				Code:    WarnInvalidRecord,
				Message: fmt.Sprintf("match record %d skipped: %v", i+1, err),
			})
			continue
		}
		res := Transform(raw, leagueName, sourceURL, opts)
		batch.Matches = append(batch.Matches, res.Match)
		batch.Warnings = append(batch.Warnings, res.Warnings...)
	}
	return batch, nil
}

func decodeRecord(record sonic.NoCopyRawMessage) (RawMatch, error) {
	trimmed := strings.TrimSpace(string(record))
	if !strings.HasPrefix(trimmed, "{") {
		return RawMatch{}, fmt.Errorf("record is not an object")
	}
	var raw RawMatch
	if err := sonic.Unmarshal(record, &raw); err != nil {
		return RawMatch{}, err
	}
	return raw, nil
}
