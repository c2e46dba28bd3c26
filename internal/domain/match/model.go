package match

import (
	"regexp"
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusLive      Status = "Live"
	StatusFinished  Status = "Finished"
	StatusPostponed Status = "Postponed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusFinished, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

type SourceKind string

const (
	SourceKindJSON   SourceKind = "json"
	SourceKindTXT    SourceKind = "txt"
	SourceKindManual SourceKind = "manual"
)

type StreamType string

const (
	StreamTypeIframe StreamType = "iframe"
	StreamTypeVideo  StreamType = "video"
	StreamTypeHLS    StreamType = "hls"
	StreamTypeDASH   StreamType = "dash"
	StreamTypeNone   StreamType = "none"
)

type StreamLinkStatus string

const (
	StreamLinkActive        StreamLinkStatus = "Active"
	StreamLinkBroken        StreamLinkStatus = "Broken"
	StreamLinkGeoRestricted StreamLinkStatus = "Geo-Restricted"
	StreamLinkUnknown       StreamLinkStatus = "Unknown"
)

// StreamLink is one watchable source attached to a match.
type StreamLink struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	QualityLabel string           `json:"qualityLabel,omitempty"`
	Type         StreamType       `json:"type"`
	Status       StreamLinkStatus `json:"status"`
}

// Team is a participant as named by the feed. LogoURL is filled at display time.
type Team struct {
	Name    string
	Code    string
	LogoURL string
}

// Match is the canonical fixture record.
type Match struct {
	ID            string
	SourceMatchID string
	SourceURL     string
	SourceKind    SourceKind
	LeagueName    string
	Round         string
	Group         string
	Kickoff       time.Time
	Time          string
	Team1         Team
	Team2         Team
	Score1        *int
	Score2        *int
	Status        Status
	StreamLinks   []StreamLink
	IsFeatured    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the natural identity of an imported match.
func (m Match) Key() SourceKey {
	return SourceKey{SourceURL: m.SourceURL, SourceMatchID: m.SourceMatchID}
}

// HasScore reports whether both sides carry a score.
func (m Match) HasScore() bool {
	return m.Score1 != nil && m.Score2 != nil
}

// FromSource reports whether the match came out of a feed rather than manual entry.
func (m Match) FromSource() bool {
	return strings.TrimSpace(m.SourceURL) != "" && strings.TrimSpace(m.SourceMatchID) != ""
}

// Clone returns a deep copy safe to hand out from in-memory stores.
func (m Match) Clone() Match {
	out := m
	if m.Score1 != nil {
		v := *m.Score1
		out.Score1 = &v
	}
	if m.Score2 != nil {
		v := *m.Score2
		out.Score2 = &v
	}
	if m.StreamLinks != nil {
		out.StreamLinks = append([]StreamLink(nil), m.StreamLinks...)
	}
	return out
}

// SourceKey identifies a match by the feed it came from and the feed-derived id.
type SourceKey struct {
	SourceURL     string
	SourceMatchID string
}

func (k SourceKey) String() string {
	return k.SourceURL + "::" + k.SourceMatchID
}

// DeletedMarker remembers an explicitly deleted source-derived match.
type DeletedMarker struct {
	SourceKey
	DeletedAt time.Time
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	LeagueName string
	Status     Status
	IDs        []string
}

var (
	slugStripPattern = regexp.MustCompile(`[^\w-]+`)
	slugDashPattern  = regexp.MustCompile(`-{2,}`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

func Slugify(value string) string {
	out := strings.ToLower(strings.TrimSpace(value))
	out = spacePattern.ReplaceAllString(out, "-")
	out = slugStripPattern.ReplaceAllString(out, "")
	out = slugDashPattern.ReplaceAllString(out, "-")
	return out
}

// Path returns the public page path of the match.
func Path(m Match) string {
	return "/match/" + Slugify(m.LeagueName) + "/" + Slugify(m.Team1.Name) + "-vs-" + Slugify(m.Team2.Name) + "/" + m.ID
}

var nameKeyStripPattern = regexp.MustCompile(`[^a-z0-9]`)

// NameKey is the lowercase alphanumeric form used to compare team and league names.
func NameKey(value string) string {
	return nameKeyStripPattern.ReplaceAllString(strings.ToLower(value), "")
}
