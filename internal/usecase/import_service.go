package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/matchfeed/internal/domain/feed"
	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultFetchTimeout       = 15 * time.Second
	defaultPreviewStartOffset = -1
	defaultPreviewEndOffset   = 7
)

// FeedFetcher downloads a raw feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LogoDiscoverer looks up logos for teams seen in freshly imported matches.
type LogoDiscoverer interface {
	DiscoverForMatches(ctx context.Context, items []match.Match) (LogoDiscoveryResult, error)
}

type ImportConfig struct {
	FetchTimeout time.Duration
	LiveWindow   time.Duration
	Location     *time.Location
}

type ImportAllInput struct {
	Overwrite bool
	Trigger   importrun.Trigger
}

type PreviewInput struct {
	SourceID        string
	StartOffsetDays *int
	EndOffsetDays   *int
}

type ImportSelectedInput struct {
	SourceID        string
	SourceMatchIDs  []string
	StartOffsetDays *int
	EndOffsetDays   *int
}

type TXTImportInput struct {
	URL             string
	LeagueName      string
	Year            int
	StartOffsetDays *int
	EndOffsetDays   *int
	// SourceMatchIDs limits ImportTXT to the listed candidates. Empty imports all of them.
	SourceMatchIDs []string
}

type SourceReport struct {
	SourceID    string         `json:"sourceId,omitempty"`
	Name        string         `json:"name,omitempty"`
	URL         string         `json:"url"`
	Parsed      int            `json:"parsed"`
	Added       int            `json:"added"`
	Skipped     int            `json:"skipped"`
	OutOfWindow int            `json:"outOfWindow"`
	Warnings    []feed.Warning `json:"warnings,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ImportReport struct {
	RunID       string            `json:"runId"`
	Trigger     importrun.Trigger `json:"trigger"`
	Overwrite   bool              `json:"overwrite"`
	Added       int               `json:"added"`
	Skipped     int               `json:"skipped"`
	OutOfWindow int               `json:"outOfWindow"`
	Sources     []SourceReport    `json:"sources"`
	Errors      []string          `json:"errors,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	FinishedAt  time.Time         `json:"finishedAt"`
}

type PreviewCandidate struct {
	Match              match.Match
	AlreadyImported    bool
	PermanentlyDeleted bool
}

type PreviewResult struct {
	Source      feedsource.Source
	Candidates  []PreviewCandidate
	OutOfWindow int
	Warnings    []feed.Warning
	WindowStart *time.Time
	WindowEnd   *time.Time
}

type ImportService struct {
	matchRepo     match.Repository
	tombstoneRepo match.TombstoneRepository
	sourceRepo    feedsource.Repository
	runRepo       importrun.Repository
	fetcher       FeedFetcher
	logos         LogoDiscoverer
	cfg           ImportConfig
	logger        *logging.Logger
	now           func() time.Time
	newID         func() string
	spawn         func(func())
}

func NewImportService(
	matchRepo match.Repository,
	tombstoneRepo match.TombstoneRepository,
	sourceRepo feedsource.Repository,
	runRepo importrun.Repository,
	fetcher FeedFetcher,
	logos LogoDiscoverer,
	cfg ImportConfig,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.LiveWindow <= 0 {
		cfg.LiveWindow = feed.DefaultLiveWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &ImportService{
		matchRepo:     matchRepo,
		tombstoneRepo: tombstoneRepo,
		sourceRepo:    sourceRepo,
		runRepo:       runRepo,
		fetcher:       fetcher,
		logos:         logos,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
		spawn:         func(fn func()) { go fn() },
	}
}

// ImportSource imports one configured feed using its own window offsets.
func (s *ImportService) ImportSource(ctx context.Context, sourceID string) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportSource", attribute.String("feed.source_id", sourceID))
	defer span.End()

	src, err := s.getSource(ctx, sourceID)
	if err != nil {
		return ImportReport{}, err
	}
	index, err := s.sourceIndex(ctx, src.URL)
	if err != nil {
		return ImportReport{}, err
	}

	report := s.newReport(importrun.TriggerManual, false)
	window := s.window(src, nil, nil)
	added, rep := s.importSource(ctx, src, window, index, nil)
	report.addSource(rep)
	s.finish(ctx, &report, added)
	return report, nil
}

// ImportAll runs every configured feed sequentially against one identity snapshot.
// A snapshot or overwrite failure aborts the run before any insert.
func (s *ImportService) ImportAll(ctx context.Context, input ImportAllInput) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportAll", attribute.Bool("import.overwrite", input.Overwrite))
	defer span.End()
	abort := func(err error) (ImportReport, error) {
		recordSpanError(span, err)
		return ImportReport{}, err
	}

	trigger := input.Trigger
	if trigger == "" {
		trigger = importrun.TriggerManual
	}

	sources, err := s.sourceRepo.List(ctx)
	if err != nil {
		return abort(fmt.Errorf("%w: list feed sources: %w", ErrImportAborted, err))
	}

	// Snapshots load before the overwrite delete so a failed load aborts the run
	// with nothing written.
	existing, err := s.matchRepo.ListSourceKeys(ctx)
	if err != nil {
		return abort(fmt.Errorf("%w: load imported match keys: %w", ErrImportAborted, err))
	}
	deleted, err := s.tombstoneRepo.ListKeys(ctx)
	if err != nil {
		return abort(fmt.Errorf("%w: load deleted match keys: %w", ErrImportAborted, err))
	}

	if input.Overwrite && len(sources) > 0 {
		urls := make([]string, 0, len(sources))
		for _, src := range sources {
			urls = append(urls, src.URL)
		}
		removed, err := s.matchRepo.DeleteBySourceURLs(ctx, urls)
		if err != nil {
			return abort(fmt.Errorf("%w: overwrite: delete matches of configured sources: %w", ErrImportAborted, err))
		}
		existing = withoutSourceURLs(existing, urls)
		s.logger.InfoContext(ctx, "overwrite import removed existing matches", "removed", removed, "sources", len(urls))
	}

	index := newIdentityIndex(existing, deleted)

	report := s.newReport(trigger, input.Overwrite)
	var added []match.Match
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("run interrupted: %v", err))
			break
		}
		items, rep := s.importSource(ctx, src, s.window(src, nil, nil), index, nil)
		added = append(added, items...)
		report.addSource(rep)
	}

	s.finish(ctx, &report, added)
	return report, nil
}

// Preview parses a configured feed and flags each in-window candidate without writing.
func (s *ImportService) Preview(ctx context.Context, input PreviewInput) (PreviewResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Preview")
	defer span.End()

	src, err := s.getSource(ctx, input.SourceID)
	if err != nil {
		return PreviewResult{}, err
	}
	return s.preview(ctx, src, s.reviewWindow(src, input.StartOffsetDays, input.EndOffsetDays))
}

// ImportSelected imports the chosen net-new candidates of a configured feed.
func (s *ImportService) ImportSelected(ctx context.Context, input ImportSelectedInput) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportSelected")
	defer span.End()

	if len(input.SourceMatchIDs) == 0 {
		return ImportReport{}, fmt.Errorf("%w: at least one source match id is required", ErrInvalidInput)
	}
	src, err := s.getSource(ctx, input.SourceID)
	if err != nil {
		return ImportReport{}, err
	}
	window := s.reviewWindow(src, input.StartOffsetDays, input.EndOffsetDays)
	return s.importWithSelection(ctx, src, importrun.TriggerSelected, window, input.SourceMatchIDs)
}

func (s *ImportService) PreviewTXT(ctx context.Context, input TXTImportInput) (PreviewResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.PreviewTXT")
	defer span.End()

	src, err := adHocTXTSource(input)
	if err != nil {
		return PreviewResult{}, err
	}
	return s.preview(ctx, src, s.window(src, input.StartOffsetDays, input.EndOffsetDays))
}

func (s *ImportService) ImportTXT(ctx context.Context, input TXTImportInput) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportTXT")
	defer span.End()

	src, err := adHocTXTSource(input)
	if err != nil {
		return ImportReport{}, err
	}
	return s.importWithSelection(ctx, src, importrun.TriggerTXT, s.window(src, input.StartOffsetDays, input.EndOffsetDays), input.SourceMatchIDs)
}

func (s *ImportService) importWithSelection(
	ctx context.Context,
	src feedsource.Source,
	trigger importrun.Trigger,
	window feed.DateWindow,
	selected []string,
) (ImportReport, error) {
	index, err := s.sourceIndex(ctx, src.URL)
	if err != nil {
		return ImportReport{}, err
	}

	var only map[string]struct{}
	if len(selected) > 0 {
		only = make(map[string]struct{}, len(selected))
		for _, id := range selected {
			if id = strings.TrimSpace(id); id != "" {
				only[id] = struct{}{}
			}
		}
	}

	report := s.newReport(trigger, false)
	added, rep := s.importSource(ctx, src, window, index, only)
	report.addSource(rep)
	s.finish(ctx, &report, added)
	return report, nil
}

func (s *ImportService) preview(ctx context.Context, src feedsource.Source, window feed.DateWindow) (PreviewResult, error) {
	batch, err := s.loadBatch(ctx, src)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	index, err := s.sourceIndex(ctx, src.URL)
	if err != nil {
		return PreviewResult{}, err
	}

	result := PreviewResult{
		Source:      src,
		Candidates:  make([]PreviewCandidate, 0, len(batch.Matches)),
		Warnings:    batch.Warnings,
		WindowStart: window.Start,
		WindowEnd:   window.End,
	}
	for _, item := range batch.Matches {
		if !window.Contains(item.Kickoff) {
			result.OutOfWindow++
			continue
		}
		result.Candidates = append(result.Candidates, PreviewCandidate{
			Match:              item,
			AlreadyImported:    index.imported(item.Key()),
			PermanentlyDeleted: index.tombstoned(item.Key()),
		})
	}
	return result, nil
}

// importSource runs fetch, parse, reconcile and insert for one feed. Failures are
// recorded on the returned report; the identity index only learns inserted keys.
func (s *ImportService) importSource(
	ctx context.Context,
	src feedsource.Source,
	window feed.DateWindow,
	index *identityIndex,
	only map[string]struct{},
) ([]match.Match, SourceReport) {
	rep := SourceReport{SourceID: src.ID, Name: src.Name, URL: src.URL}
	logger := s.logger.With("source_id", src.ID, "source_url", src.URL)

	batch, err := s.loadBatch(ctx, src)
	if err != nil {
		rep.Error = err.Error()
		logger.WarnContext(ctx, "feed import failed", "error", err)
		return nil, rep
	}
	rep.Parsed = len(batch.Matches)
	rep.Warnings = batch.Warnings

	candidates := batch.Matches
	if only != nil {
		candidates = make([]match.Match, 0, len(only))
		for _, item := range batch.Matches {
			if _, ok := only[item.SourceMatchID]; ok {
				candidates = append(candidates, item)
			}
		}
		rep.Skipped += len(batch.Matches) - len(candidates)
	}

	outcome := reconcileCandidates(candidates, window, index)
	rep.Skipped += outcome.skipped
	rep.OutOfWindow = outcome.outOfWindow

	if len(outcome.accepted) > 0 {
		now := s.now().UTC()
		for i := range outcome.accepted {
			outcome.accepted[i].CreatedAt = now
			outcome.accepted[i].UpdatedAt = now
		}
		if err := s.matchRepo.InsertMany(ctx, outcome.accepted); err != nil {
			rep.Error = fmt.Sprintf("insert matches: %v", err)
			logger.ErrorContext(ctx, "insert imported matches failed", "candidates", len(outcome.accepted), "error", err)
			return nil, rep
		}
		index.add(outcome.accepted)
		rep.Added = len(outcome.accepted)
	}

	if src.ID != "" {
		if err := s.sourceRepo.MarkImported(ctx, src.ID, s.now().UTC()); err != nil {
			logger.WarnContext(ctx, "mark source imported failed", "error", err)
		}
	}
	logger.InfoContext(ctx, "feed imported",
		"parsed", rep.Parsed,
		"added", rep.Added,
		"skipped", rep.Skipped,
		"out_of_window", rep.OutOfWindow,
		"warnings", len(rep.Warnings),
	)
	return outcome.accepted, rep
}

func (s *ImportService) loadBatch(ctx context.Context, src feedsource.Source) (feed.Batch, error) {
	if s.fetcher == nil {
		return feed.Batch{}, fmt.Errorf("feed fetcher is not configured")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	content, err := s.fetcher.Fetch(fetchCtx, src.URL)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return feed.Batch{}, fmt.Errorf("fetch feed: timed out after %s: %w", s.cfg.FetchTimeout, err)
		}
		return feed.Batch{}, fmt.Errorf("fetch feed: %w", err)
	}

	opts := feed.Options{
		Now:        s.now,
		LiveWindow: s.cfg.LiveWindow,
		Location:   s.cfg.Location,
		NewID:      s.newID,
	}
	switch src.Kind {
	case feedsource.KindTXT:
		return feed.ParseTXT(string(content), feed.TXTOptions{
			LeagueName: src.LeagueName,
			Year:       src.Year,
			SourceURL:  src.URL,
			Options:    opts,
		}), nil
	default:
		batch, err := feed.ParseJSON(content, src.URL, opts)
		if err != nil {
			return feed.Batch{}, fmt.Errorf("parse feed: %w", err)
		}
		return batch, nil
	}
}

func (s *ImportService) sourceIndex(ctx context.Context, sourceURL string) (*identityIndex, error) {
	existing, err := s.matchRepo.ListSourceMatchIDsBySource(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: load imported match ids: %w", ErrImportAborted, err)
	}
	deleted, err := s.tombstoneRepo.ListSourceMatchIDsBySource(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: load deleted match ids: %w", ErrImportAborted, err)
	}
	return newSourceIdentityIndex(sourceURL, existing, deleted), nil
}

// reviewWindow is the window shared by Preview and ImportSelected of a configured
// source: offsets missing from both the request and the source default to -1..7 days.
// Ad-hoc TXT imports use the plain window, unbounded unless offsets are given.
func (s *ImportService) reviewWindow(src feedsource.Source, startOverride, endOverride *int) feed.DateWindow {
	if startOverride == nil && src.ImportStartDateOffsetDays == nil {
		v := defaultPreviewStartOffset
		startOverride = &v
	}
	if endOverride == nil && src.ImportEndDateOffsetDays == nil {
		v := defaultPreviewEndOffset
		endOverride = &v
	}
	return s.window(src, startOverride, endOverride)
}

func (s *ImportService) window(src feedsource.Source, startOverride, endOverride *int) feed.DateWindow {
	start := src.ImportStartDateOffsetDays
	if startOverride != nil {
		start = startOverride
	}
	end := src.ImportEndDateOffsetDays
	if endOverride != nil {
		end = endOverride
	}
	return feed.NewDateWindow(s.now(), start, end, s.cfg.Location)
}

func (s *ImportService) getSource(ctx context.Context, sourceID string) (feedsource.Source, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return feedsource.Source{}, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}
	src, exists, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return feedsource.Source{}, fmt.Errorf("get feed source: %w", err)
	}
	if !exists {
		return feedsource.Source{}, fmt.Errorf("%w: source=%s", ErrNotFound, sourceID)
	}
	return src, nil
}

func adHocTXTSource(input TXTImportInput) (feedsource.Source, error) {
	src := feedsource.Source{
		Name:       strings.TrimSpace(input.LeagueName),
		URL:        strings.TrimSpace(input.URL),
		Kind:       feedsource.KindTXT,
		LeagueName: strings.TrimSpace(input.LeagueName),
		Year:       input.Year,
	}
	if err := validateSourceURL(src.URL); err != nil {
		return feedsource.Source{}, err
	}
	if src.LeagueName == "" {
		return feedsource.Source{}, fmt.Errorf("%w: league name is required for txt imports", ErrInvalidInput)
	}
	if src.Year < 1900 || src.Year > 2200 {
		return feedsource.Source{}, fmt.Errorf("%w: year must be between 1900 and 2200", ErrInvalidInput)
	}
	if err := validateOffsets(input.StartOffsetDays, input.EndOffsetDays); err != nil {
		return feedsource.Source{}, err
	}
	return src, nil
}

func (s *ImportService) newReport(trigger importrun.Trigger, overwrite bool) ImportReport {
	return ImportReport{
		RunID:     s.newID(),
		Trigger:   trigger,
		Overwrite: overwrite,
		Sources:   []SourceReport{},
		StartedAt: s.now().UTC(),
	}
}

func (r *ImportReport) addSource(rep SourceReport) {
	r.Sources = append(r.Sources, rep)
	r.Added += rep.Added
	r.Skipped += rep.Skipped
	r.OutOfWindow += rep.OutOfWindow
	if rep.Error != "" {
		label := rep.Name
		if label == "" {
			label = rep.URL
		}
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", label, rep.Error))
	}
}

func (s *ImportService) finish(ctx context.Context, report *ImportReport, added []match.Match) {
	report.FinishedAt = s.now().UTC()
	annotateReportSpan(ctx, *report)
	s.recordRun(ctx, *report)
	s.logger.InfoContext(ctx, "import run finished",
		"run_id", report.RunID,
		"trigger", report.Trigger,
		"added", report.Added,
		"skipped", report.Skipped,
		"out_of_window", report.OutOfWindow,
		"errors", len(report.Errors),
	)

	if s.logos == nil || len(added) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.spawn(func() {
		result, err := s.logos.DiscoverForMatches(detached, added)
		if err != nil {
			s.logger.WarnContext(detached, "logo discovery after import failed", "run_id", report.RunID, "error", err)
			return
		}
		s.logger.InfoContext(detached, "logo discovery after import finished",
			"run_id", report.RunID,
			"checked", result.Checked,
			"found", result.Found,
		)
	})
}

func (s *ImportService) recordRun(ctx context.Context, report ImportReport) {
	if s.runRepo == nil {
		return
	}

	run := importrun.Run{
		ID:          report.RunID,
		Trigger:     report.Trigger,
		Status:      runStatus(report),
		Overwrite:   report.Overwrite,
		Added:       report.Added,
		Skipped:     report.Skipped,
		OutOfWindow: report.OutOfWindow,
		Sources:     make([]importrun.SourceOutcome, 0, len(report.Sources)),
		Errors:      report.Errors,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		run.TraceID = spanCtx.TraceID().String()
	}
	for _, rep := range report.Sources {
		run.Sources = append(run.Sources, importrun.SourceOutcome{
			SourceID:    rep.SourceID,
			SourceURL:   rep.URL,
			Name:        rep.Name,
			Added:       rep.Added,
			Skipped:     rep.Skipped,
			OutOfWindow: rep.OutOfWindow,
			Warnings:    len(rep.Warnings),
			Error:       rep.Error,
		})
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "record import run failed", "run_id", run.ID, "error", err)
	}
}

func runStatus(report ImportReport) importrun.Status {
	if len(report.Errors) == 0 {
		return importrun.StatusCompleted
	}
	failed := 0
	for _, rep := range report.Sources {
		if rep.Error != "" {
			failed++
		}
	}
	if report.Added == 0 && failed == len(report.Sources) {
		return importrun.StatusFailed
	}
	return importrun.StatusPartial
}

// ListRuns returns the most recent import runs.
func (s *ImportService) ListRuns(ctx context.Context, limit int) ([]importrun.Run, error) {
	if s.runRepo == nil {
		return []importrun.Run{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	runs, err := s.runRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}

func (s *ImportService) GetRun(ctx context.Context, runID string) (importrun.Run, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return importrun.Run{}, fmt.Errorf("%w: run id is required", ErrInvalidInput)
	}
	if s.runRepo == nil {
		return importrun.Run{}, fmt.Errorf("%w: run=%s", ErrNotFound, runID)
	}
	run, exists, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return importrun.Run{}, fmt.Errorf("get import run: %w", err)
	}
	if !exists {
		return importrun.Run{}, fmt.Errorf("%w: run=%s", ErrNotFound, runID)
	}
	return run, nil
}
