package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/feed"
	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

type teamRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Code    string `json:"code" validate:"omitempty,max=10"`
	LogoURL string `json:"logoUrl" validate:"omitempty,url"`
}

type streamLinkRequest struct {
	ID           string `json:"id" validate:"omitempty,max=64"`
	URL          string `json:"url" validate:"required,url"`
	QualityLabel string `json:"qualityLabel" validate:"omitempty,max=40"`
	Type         string `json:"type" validate:"omitempty,oneof=iframe video hls dash none"`
	Status       string `json:"status" validate:"omitempty,oneof=Active Broken Geo-Restricted Unknown"`
}

type matchRequest struct {
	LeagueName  string              `json:"leagueName" validate:"required,max=120"`
	Round       string              `json:"round" validate:"max=120"`
	Group       string              `json:"group" validate:"max=120"`
	Kickoff     string              `json:"kickoff" validate:"required"`
	Time        string              `json:"time" validate:"omitempty,max=5"`
	Team1       teamRequest         `json:"team1" validate:"required"`
	Team2       teamRequest         `json:"team2" validate:"required"`
	Score1      *int                `json:"score1" validate:"omitempty,gte=0"`
	Score2      *int                `json:"score2" validate:"omitempty,gte=0"`
	Status      string              `json:"status" validate:"omitempty,oneof=Upcoming Live Finished Postponed Cancelled"`
	StreamLinks []streamLinkRequest `json:"streamLinks" validate:"omitempty,dive"`
}

type bulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
	Status string   `json:"status" validate:"required,oneof=Upcoming Live Finished Postponed Cancelled"`
}

type feedSourceRequest struct {
	Name                      string `json:"name" validate:"required,max=120"`
	URL                       string `json:"url" validate:"required,url"`
	Kind                      string `json:"kind" validate:"omitempty,oneof=json txt"`
	LeagueName                string `json:"leagueName" validate:"max=120"`
	Year                      int    `json:"year" validate:"omitempty,gte=1900,lte=2200"`
	ImportStartDateOffsetDays *int   `json:"importStartDateOffsetDays"`
	ImportEndDateOffsetDays   *int   `json:"importEndDateOffsetDays"`
}

type windowRequest struct {
	StartOffsetDays *int `json:"startOffsetDays"`
	EndOffsetDays   *int `json:"endOffsetDays"`
}

type importSelectedRequest struct {
	SourceMatchIDs  []string `json:"sourceMatchIds" validate:"required,min=1,dive,required"`
	StartOffsetDays *int     `json:"startOffsetDays"`
	EndOffsetDays   *int     `json:"endOffsetDays"`
}

type importRunRequest struct {
	Overwrite bool `json:"overwrite"`
}

type scheduleImportRequest struct {
	DelaySeconds *int `json:"delaySeconds" validate:"omitempty,gte=0,lte=604800"`
	Overwrite    bool `json:"overwrite"`
}

type txtImportRequest struct {
	URL             string   `json:"url" validate:"required,url"`
	LeagueName      string   `json:"leagueName" validate:"required,max=120"`
	Year            int      `json:"year" validate:"required,gte=1900,lte=2200"`
	StartOffsetDays *int     `json:"startOffsetDays"`
	EndOffsetDays   *int     `json:"endOffsetDays"`
	SourceMatchIDs  []string `json:"sourceMatchIds" validate:"omitempty,dive,required"`
}

type upsertTeamRequest struct {
	Name          string `json:"name" validate:"required,max=120"`
	LogoURL       string `json:"logoUrl" validate:"required,url"`
	LeagueContext string `json:"leagueContext" validate:"max=120"`
}

type searchLogoRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	LeagueName string `json:"leagueName" validate:"max=120"`
}

type internalImportJobRequest struct {
	DispatchID string `json:"dispatch_id"`
	Overwrite  bool   `json:"overwrite"`
}

type teamDTO struct {
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}

type matchDTO struct {
	ID            string             `json:"id"`
	SourceMatchID string             `json:"sourceMatchId,omitempty"`
	SourceURL     string             `json:"sourceUrl,omitempty"`
	SourceKind    string             `json:"sourceKind"`
	LeagueName    string             `json:"leagueName"`
	Round         string             `json:"round,omitempty"`
	Group         string             `json:"group,omitempty"`
	Kickoff       time.Time          `json:"kickoff"`
	Time          string             `json:"time,omitempty"`
	Team1         teamDTO            `json:"team1"`
	Team2         teamDTO            `json:"team2"`
	Score1        *int               `json:"score1"`
	Score2        *int               `json:"score2"`
	Status        string             `json:"status"`
	StreamLinks   []match.StreamLink `json:"streamLinks"`
	IsFeatured    bool               `json:"isFeatured"`
	Path          string             `json:"path"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type feedSourceDTO struct {
	ID                        string     `json:"id"`
	Name                      string     `json:"name"`
	URL                       string     `json:"url"`
	Kind                      string     `json:"kind"`
	LeagueName                string     `json:"leagueName,omitempty"`
	Year                      int        `json:"year,omitempty"`
	ImportStartDateOffsetDays *int       `json:"importStartDateOffsetDays"`
	ImportEndDateOffsetDays   *int       `json:"importEndDateOffsetDays"`
	LastImportedAt            *time.Time `json:"lastImportedAt"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

type previewCandidateDTO struct {
	Match              matchDTO `json:"match"`
	AlreadyImported    bool     `json:"alreadyImported"`
	PermanentlyDeleted bool     `json:"permanentlyDeleted"`
}

type previewDTO struct {
	Source      feedSourceDTO         `json:"source"`
	Candidates  []previewCandidateDTO `json:"candidates"`
	OutOfWindow int                   `json:"outOfWindow"`
	Warnings    []feed.Warning        `json:"warnings"`
	WindowStart *time.Time            `json:"windowStart"`
	WindowEnd   *time.Time            `json:"windowEnd"`
}

type importRunDTO struct {
	ID          string                    `json:"id"`
	Trigger     string                    `json:"trigger"`
	Status      string                    `json:"status"`
	Overwrite   bool                      `json:"overwrite"`
	Added       int                       `json:"added"`
	Skipped     int                       `json:"skipped"`
	OutOfWindow int                       `json:"outOfWindow"`
	Sources     []importrun.SourceOutcome `json:"sources"`
	Errors      []string                  `json:"errors"`
	StartedAt   time.Time                 `json:"startedAt"`
	FinishedAt  time.Time                 `json:"finishedAt"`
	TraceID     string                    `json:"traceId,omitempty"`
}

type managedTeamDTO struct {
	NameKey       string    `json:"nameKey"`
	DisplayName   string    `json:"displayName"`
	LogoURL       string    `json:"logoUrl"`
	LeagueContext string    `json:"leagueContext,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type bulkResultDTO struct {
	Affected int `json:"affected"`
}

func (req matchRequest) toInput() (usecase.MatchInput, error) {
	kickoff, err := parseKickoff(req.Kickoff)
	if err != nil {
		return usecase.MatchInput{}, err
	}

	links := make([]match.StreamLink, 0, len(req.StreamLinks))
	for _, l := range req.StreamLinks {
		links = append(links, match.StreamLink{
			ID:           strings.TrimSpace(l.ID),
			URL:          strings.TrimSpace(l.URL),
			QualityLabel: strings.TrimSpace(l.QualityLabel),
			Type:         match.StreamType(l.Type),
			Status:       match.StreamLinkStatus(l.Status),
		})
	}

	return usecase.MatchInput{
		LeagueName:  req.LeagueName,
		Round:       req.Round,
		Group:       req.Group,
		Kickoff:     kickoff,
		Time:        req.Time,
		Team1:       match.Team{Name: req.Team1.Name, Code: req.Team1.Code, LogoURL: req.Team1.LogoURL},
		Team2:       match.Team{Name: req.Team2.Name, Code: req.Team2.Code, LogoURL: req.Team2.LogoURL},
		Score1:      req.Score1,
		Score2:      req.Score2,
		Status:      match.Status(req.Status),
		StreamLinks: links,
	}, nil
}

// parseKickoff accepts RFC 3339 timestamps and bare dates (midnight UTC).
func parseKickoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: kickoff must be RFC3339 or YYYY-MM-DD", usecase.ErrInvalidInput)
}

func (req feedSourceRequest) toInput(id string) usecase.UpsertSourceInput {
	kind := feedsource.Kind(req.Kind)
	if kind == "" {
		kind = feedsource.KindJSON
	}
	return usecase.UpsertSourceInput{
		ID:                        id,
		Name:                      req.Name,
		URL:                       req.URL,
		Kind:                      kind,
		LeagueName:                req.LeagueName,
		Year:                      req.Year,
		ImportStartDateOffsetDays: req.ImportStartDateOffsetDays,
		ImportEndDateOffsetDays:   req.ImportEndDateOffsetDays,
	}
}

func (req txtImportRequest) toInput() usecase.TXTImportInput {
	return usecase.TXTImportInput{
		URL:             req.URL,
		LeagueName:      req.LeagueName,
		Year:            req.Year,
		StartOffsetDays: req.StartOffsetDays,
		EndOffsetDays:   req.EndOffsetDays,
		SourceMatchIDs:  req.SourceMatchIDs,
	}
}

func matchToDTO(m match.Match) matchDTO {
	links := m.StreamLinks
	if links == nil {
		links = []match.StreamLink{}
	}
	kind := m.SourceKind
	if kind == "" {
		kind = match.SourceKindManual
	}
	return matchDTO{
		ID:            m.ID,
		SourceMatchID: m.SourceMatchID,
		SourceURL:     m.SourceURL,
		SourceKind:    string(kind),
		LeagueName:    m.LeagueName,
		Round:         m.Round,
		Group:         m.Group,
		Kickoff:       m.Kickoff.UTC(),
		Time:          m.Time,
		Team1:         teamDTO(m.Team1),
		Team2:         teamDTO(m.Team2),
		Score1:        m.Score1,
		Score2:        m.Score2,
		Status:        string(m.Status),
		StreamLinks:   links,
		IsFeatured:    m.IsFeatured,
		Path:          match.Path(m),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func feedSourceToDTO(s feedsource.Source) feedSourceDTO {
	return feedSourceDTO{
		ID:                        s.ID,
		Name:                      s.Name,
		URL:                       s.URL,
		Kind:                      string(s.Kind),
		LeagueName:                s.LeagueName,
		Year:                      s.Year,
		ImportStartDateOffsetDays: s.ImportStartDateOffsetDays,
		ImportEndDateOffsetDays:   s.ImportEndDateOffsetDays,
		LastImportedAt:            s.LastImportedAt,
		CreatedAt:                 s.CreatedAt,
		UpdatedAt:                 s.UpdatedAt,
	}
}

func previewToDTO(p usecase.PreviewResult) previewDTO {
	candidates := make([]previewCandidateDTO, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		candidates = append(candidates, previewCandidateDTO{
			Match:              matchToDTO(c.Match),
			AlreadyImported:    c.AlreadyImported,
			PermanentlyDeleted: c.PermanentlyDeleted,
		})
	}
	warnings := p.Warnings
	if warnings == nil {
		warnings = []feed.Warning{}
	}
	return previewDTO{
		Source:      feedSourceToDTO(p.Source),
		Candidates:  candidates,
		OutOfWindow: p.OutOfWindow,
		Warnings:    warnings,
		WindowStart: p.WindowStart,
		WindowEnd:   p.WindowEnd,
	}
}

func importRunToDTO(r importrun.Run) importRunDTO {
	sources := r.Sources
	if sources == nil {
		sources = []importrun.SourceOutcome{}
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return importRunDTO{
		ID:          r.ID,
		Trigger:     string(r.Trigger),
		Status:      string(r.Status),
		Overwrite:   r.Overwrite,
		Added:       r.Added,
		Skipped:     r.Skipped,
		OutOfWindow: r.OutOfWindow,
		Sources:     sources,
		Errors:      errs,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		TraceID:     r.TraceID,
	}
}

func managedTeamToDTO(t teamlogo.ManagedTeam) managedTeamDTO {
	return managedTeamDTO(t)
}
