package feedsource

import "time"

type Kind string

const (
	KindJSON Kind = "json"
	KindTXT  Kind = "txt"
)

func (k Kind) Valid() bool {
	return k == KindJSON || k == KindTXT
}

// Source is a configured upstream feed.
type Source struct {
	ID         string
	Name       string
	URL        string
	Kind       Kind
	LeagueName string
	// Year anchors TXT date lines, which carry no year.
	Year                      int
	ImportStartDateOffsetDays *int
	ImportEndDateOffsetDays   *int
	LastImportedAt            *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}
