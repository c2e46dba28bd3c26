package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/infrastructure/repository/memory"
	importrunmock "github.com/riskibarqy/matchfeed/internal/mocks/domain/importrun"
	matchmock "github.com/riskibarqy/matchfeed/internal/mocks/domain/match"
	"github.com/stretchr/testify/mock"
)

type stubFetcher struct {
	mu        sync.Mutex
	documents map[string]string
	failures  map[string]error
	calls     map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		documents: map[string]string{},
		failures:  map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	doc, ok := f.documents[url]
	failure := f.failures[url]
	f.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	return []byte(doc), nil
}

type slowFetcher struct{}

func (slowFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var importNow = time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)

const (
	feedA = "https://feeds.example.com/a.json"
	feedB = "https://feeds.example.com/b.json"
	feedT = "https://feeds.example.com/c.txt"
)

func jsonFeed(league string, dates ...string) string {
	var b strings.Builder
	b.WriteString(`{"name":"` + league + `","matches":[`)
	for i, d := range dates {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"round":"R1","date":"%s","time":"15:00","team1":"Home %d","team2":"Away %d"}`, d, i, i)
	}
	b.WriteString("]}")
	return b.String()
}

type importFixture struct {
	matches    *memory.MatchRepository
	tombstones *memory.TombstoneRepository
	sources    *memory.FeedSourceRepository
	runs       *memory.ImportRunRepository
	fetcher    *stubFetcher
	service    *ImportService
}

func newImportFixture(t *testing.T, sources ...feedsource.Source) *importFixture {
	t.Helper()

	f := &importFixture{
		matches:    memory.NewMatchRepository(nil),
		tombstones: memory.NewTombstoneRepository(),
		sources:    memory.NewFeedSourceRepository(sources),
		runs:       memory.NewImportRunRepository(10),
		fetcher:    newStubFetcher(),
	}
	f.service = NewImportService(f.matches, f.tombstones, f.sources, f.runs, f.fetcher, nil, ImportConfig{}, nil)
	f.service.now = func() time.Time { return importNow }
	return f
}

func jsonSource(id, url string) feedsource.Source {
	return feedsource.Source{ID: id, Name: id, URL: url, Kind: feedsource.KindJSON}
}

func TestImportService_ImportAllIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t, jsonSource("a", feedA), jsonSource("b", feedB))
	f.fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16", "2025-08-17")
	f.fetcher.documents[feedB] = jsonFeed("League B", "2025-08-18")

	first, err := f.service.ImportAll(ctx, ImportAllInput{})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Added != 3 {
		t.Fatalf("unexpected first added: got=%d want=3", first.Added)
	}

	second, err := f.service.ImportAll(ctx, ImportAllInput{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Added != 0 || second.Skipped != 3 {
		t.Fatalf("unexpected second run: added=%d skipped=%d want=0/3", second.Added, second.Skipped)
	}

	stored, _ := f.matches.List(ctx, match.Filter{})
	if len(stored) != 3 {
		t.Fatalf("unexpected stored count: got=%d want=3", len(stored))
	}
	src, _, _ := f.sources.GetByID(ctx, "a")
	if src.LastImportedAt == nil || !src.LastImportedAt.Equal(importNow) {
		t.Fatalf("unexpected last imported at: %v", src.LastImportedAt)
	}
	runs, _ := f.runs.List(ctx, 10)
	if len(runs) != 2 || runs[0].Status != importrun.StatusCompleted {
		t.Fatalf("unexpected recorded runs: %+v", runs)
	}
}

func TestImportService_TombstoneBlocksReimport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t, jsonSource("a", feedA))
	f.fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16")

	if _, err := f.service.ImportAll(ctx, ImportAllInput{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	stored, _ := f.matches.List(ctx, match.Filter{})

	matches := NewMatchService(f.matches, f.tombstones, memory.NewSettingsRepository(), nil, nil)
	if err := matches.Delete(ctx, stored[0].ID); err != nil {
		t.Fatalf("delete match: %v", err)
	}

	report, err := f.service.ImportAll(ctx, ImportAllInput{Overwrite: true})
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if report.Added != 0 {
		t.Fatalf("unexpected added after delete: got=%d want=0", report.Added)
	}

	preview, err := f.service.Preview(ctx, PreviewInput{SourceID: "a"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Candidates) != 1 || !preview.Candidates[0].PermanentlyDeleted || preview.Candidates[0].AlreadyImported {
		t.Fatalf("unexpected preview flags: %+v", preview.Candidates)
	}
}

func TestImportService_SourceFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t, jsonSource("a", feedA), jsonSource("b", feedB), jsonSource("c", "https://feeds.example.com/broken.json"))
	f.fetcher.failures[feedA] = errors.New("status 503")
	f.fetcher.documents[feedB] = jsonFeed("League B", "2025-08-16")
	f.fetcher.documents["https://feeds.example.com/broken.json"] = `{"name": "x", "matches": [`

	report, err := f.service.ImportAll(ctx, ImportAllInput{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Added != 1 {
		t.Fatalf("unexpected added: got=%d want=1", report.Added)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("unexpected error count: got=%d want=2 (%v)", len(report.Errors), report.Errors)
	}
	if report.Sources[0].Error == "" || report.Sources[1].Error != "" || report.Sources[2].Error == "" {
		t.Fatalf("unexpected per-source errors: %+v", report.Sources)
	}
	src, _, _ := f.sources.GetByID(ctx, "a")
	if src.LastImportedAt != nil {
		t.Fatalf("expected failed source to keep its last import time")
	}
	runs, _ := f.runs.List(ctx, 1)
	if runs[0].Status != importrun.StatusPartial {
		t.Fatalf("unexpected run status: got=%s want=%s", runs[0].Status, importrun.StatusPartial)
	}
}

func TestImportService_FetchTimeoutIsRecorded(t *testing.T) {
	t.Parallel()

	sources := memory.NewFeedSourceRepository([]feedsource.Source{jsonSource("a", feedA)})
	service := NewImportService(
		memory.NewMatchRepository(nil),
		memory.NewTombstoneRepository(),
		sources,
		nil,
		slowFetcher{},
		nil,
		ImportConfig{FetchTimeout: 10 * time.Millisecond},
		nil,
	)

	report, err := service.ImportAll(context.Background(), ImportAllInput{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(report.Sources[0].Error, "timed out") {
		t.Fatalf("unexpected error: got=%q want timeout", report.Sources[0].Error)
	}
}

func TestImportService_SnapshotFailureAbortsBeforeWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	tombstoneRepo := matchmock.NewTombstoneRepository(t)
	sources := memory.NewFeedSourceRepository([]feedsource.Source{jsonSource("a", feedA)})
	fetcher := newStubFetcher()

	matchRepo.On("ListSourceKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	tombstoneRepo.On("ListKeys", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	service := NewImportService(matchRepo, tombstoneRepo, sources, nil, fetcher, nil, ImportConfig{}, nil)
	if _, err := service.ImportAll(ctx, ImportAllInput{}); !errors.Is(err, ErrImportAborted) {
		t.Fatalf("expected ErrImportAborted, got %v", err)
	}
	if fetcher.calls[feedA] != 0 {
		t.Fatalf("unexpected fetch before snapshot: got=%d want=0", fetcher.calls[feedA])
	}
	matchRepo.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestImportService_OverwriteFailureAborts(t *testing.T) {
	t.Parallel()

	matchRepo := matchmock.NewRepository(t)
	tombstoneRepo := matchmock.NewTombstoneRepository(t)
	sources := memory.NewFeedSourceRepository([]feedsource.Source{jsonSource("a", feedA), jsonSource("b", feedB)})

	matchRepo.On("ListSourceKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	tombstoneRepo.On("ListKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	matchRepo.On("DeleteBySourceURLs", mock.Anything, []string{feedA, feedB}).Return(int64(0), errors.New("lock timeout")).Once()

	service := NewImportService(matchRepo, tombstoneRepo, sources, nil, newStubFetcher(), nil, ImportConfig{}, nil)
	if _, err := service.ImportAll(context.Background(), ImportAllInput{Overwrite: true}); !errors.Is(err, ErrImportAborted) {
		t.Fatalf("expected ErrImportAborted, got %v", err)
	}
}

func TestImportService_OverwriteDeletesNothingWhenSnapshotFails(t *testing.T) {
	t.Parallel()

	matchRepo := matchmock.NewRepository(t)
	tombstoneRepo := matchmock.NewTombstoneRepository(t)
	sources := memory.NewFeedSourceRepository([]feedsource.Source{jsonSource("a", feedA)})
	fetcher := newStubFetcher()

	matchRepo.On("ListSourceKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	tombstoneRepo.On("ListKeys", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	service := NewImportService(matchRepo, tombstoneRepo, sources, nil, fetcher, nil, ImportConfig{}, nil)
	if _, err := service.ImportAll(context.Background(), ImportAllInput{Overwrite: true}); !errors.Is(err, ErrImportAborted) {
		t.Fatalf("expected ErrImportAborted, got %v", err)
	}
	matchRepo.AssertNotCalled(t, "DeleteBySourceURLs", mock.Anything, mock.Anything)
	if fetcher.calls[feedA] != 0 {
		t.Fatalf("unexpected fetch after failed snapshot: got=%d want=0", fetcher.calls[feedA])
	}
}

func TestImportService_InsertFailureKeepsIndexClean(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	tombstoneRepo := matchmock.NewTombstoneRepository(t)
	// both sources publish the same url so the second batch reuses the same keys
	sources := memory.NewFeedSourceRepository([]feedsource.Source{jsonSource("a", feedA), jsonSource("a2", feedA)})
	fetcher := newStubFetcher()
	fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16")

	matchRepo.On("ListSourceKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	tombstoneRepo.On("ListKeys", mock.Anything).Return([]match.SourceKey{}, nil).Once()
	matchRepo.On("InsertMany", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	matchRepo.On("InsertMany", mock.Anything, mock.MatchedBy(func(items []match.Match) bool { return len(items) == 1 })).Return(nil).Once()

	service := NewImportService(matchRepo, tombstoneRepo, sources, nil, fetcher, nil, ImportConfig{}, nil)
	service.now = func() time.Time { return importNow }

	report, err := service.ImportAll(ctx, ImportAllInput{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Sources[0].Added != 0 || report.Sources[0].Error == "" {
		t.Fatalf("unexpected first source report: %+v", report.Sources[0])
	}
	if report.Sources[1].Added != 1 {
		t.Fatalf("unexpected second source added: got=%d want=1", report.Sources[1].Added)
	}
}

func TestImportService_WindowFiltersCandidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start, end := -1, 0
	src := jsonSource("a", feedA)
	src.ImportStartDateOffsetDays = &start
	src.ImportEndDateOffsetDays = &end
	f := newImportFixture(t, src)
	f.fetcher.documents[feedA] = `{"name":"L","matches":[
		{"date":"2025-08-16","time":"23:59:59","team1":"A","team2":"B"},
		{"date":"2025-08-17","time":"00:00:01","team1":"C","team2":"D"},
		{"date":"2025-08-15","time":"00:00","team1":"E","team2":"F"}
	]}`

	report, err := f.service.ImportSource(ctx, "a")
	if err != nil {
		t.Fatalf("import source: %v", err)
	}
	if report.Added != 2 || report.OutOfWindow != 1 {
		t.Fatalf("unexpected counts: added=%d out_of_window=%d want=2/1", report.Added, report.OutOfWindow)
	}
}

func TestImportService_DuplicatesInsideOneBatch(t *testing.T) {
	t.Parallel()

	f := newImportFixture(t, jsonSource("a", feedA))
	f.fetcher.documents[feedA] = `{"name":"L","matches":[
		{"date":"2025-08-16","team1":"A","team2":"B"},
		{"date":"2025-08-16","team1":"A","team2":"B"}
	]}`

	report, err := f.service.ImportSource(context.Background(), "a")
	if err != nil {
		t.Fatalf("import source: %v", err)
	}
	if report.Added != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected counts: added=%d skipped=%d want=1/1", report.Added, report.Skipped)
	}
}

func TestImportService_ImportSelected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t, jsonSource("a", feedA))
	f.fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16", "2025-08-17")

	preview, err := f.service.Preview(ctx, PreviewInput{SourceID: "a"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Candidates) != 2 {
		t.Fatalf("unexpected candidate count: got=%d want=2", len(preview.Candidates))
	}
	chosen := preview.Candidates[1].Match.SourceMatchID

	report, err := f.service.ImportSelected(ctx, ImportSelectedInput{SourceID: "a", SourceMatchIDs: []string{chosen}})
	if err != nil {
		t.Fatalf("import selected: %v", err)
	}
	if report.Added != 1 || report.Trigger != importrun.TriggerSelected {
		t.Fatalf("unexpected report: added=%d trigger=%s", report.Added, report.Trigger)
	}

	again, _ := f.service.Preview(ctx, PreviewInput{SourceID: "a"})
	if !again.Candidates[1].AlreadyImported || again.Candidates[0].AlreadyImported {
		t.Fatalf("unexpected flags after selected import: %+v", again.Candidates)
	}

	if _, err := f.service.ImportSelected(ctx, ImportSelectedInput{SourceID: "a"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty selection, got %v", err)
	}
}

func TestImportService_ImportTXT(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t)
	f.fetcher.documents[feedT] = "» Matchday 1\nSat Aug/16\n  15.00 Alpha FC vs Beta FC\n  17.30 Gamma (ENG) vs Delta (ENG)\n"

	input := TXTImportInput{URL: feedT, LeagueName: "Test League", Year: 2025}
	preview, err := f.service.PreviewTXT(ctx, input)
	if err != nil {
		t.Fatalf("preview txt: %v", err)
	}
	if len(preview.Candidates) != 2 {
		t.Fatalf("unexpected candidate count: got=%d want=2", len(preview.Candidates))
	}

	report, err := f.service.ImportTXT(ctx, input)
	if err != nil {
		t.Fatalf("import txt: %v", err)
	}
	if report.Added != 2 {
		t.Fatalf("unexpected added: got=%d want=2", report.Added)
	}
	stored, _ := f.matches.List(ctx, match.Filter{})
	for _, item := range stored {
		if item.SourceKind != match.SourceKindTXT || item.SourceURL != feedT {
			t.Fatalf("unexpected stored source: %s %s", item.SourceKind, item.SourceURL)
		}
	}

	if _, err := f.service.PreviewTXT(ctx, TXTImportInput{URL: feedT, Year: 2025}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without league, got %v", err)
	}
}

func TestImportService_TXTPreviewAndImportCoverSameFixtures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t)
	// a season file: one fixture today, one a month out
	f.fetcher.documents[feedT] = "» Matchday 1\nSat Aug/16\n  15.00 Alpha FC vs Beta FC\n» Matchday 6\nSat Sep/20\n  15.00 Gamma FC vs Delta FC\n"

	input := TXTImportInput{URL: feedT, LeagueName: "Test League", Year: 2025}
	preview, err := f.service.PreviewTXT(ctx, input)
	if err != nil {
		t.Fatalf("preview txt: %v", err)
	}
	report, err := f.service.ImportTXT(ctx, input)
	if err != nil {
		t.Fatalf("import txt: %v", err)
	}
	if len(preview.Candidates) != report.Added || preview.OutOfWindow != report.OutOfWindow {
		t.Fatalf("preview and import disagree: candidates=%d out_of_window=%d, added=%d out_of_window=%d",
			len(preview.Candidates), preview.OutOfWindow, report.Added, report.OutOfWindow)
	}
	if report.Added != 2 {
		t.Fatalf("unexpected added: got=%d want=2", report.Added)
	}

	start, end := 0, 7
	bounded := TXTImportInput{URL: feedT, LeagueName: "Other League", Year: 2025, StartOffsetDays: &start, EndOffsetDays: &end}
	preview, err = f.service.PreviewTXT(ctx, bounded)
	if err != nil {
		t.Fatalf("bounded preview txt: %v", err)
	}
	if len(preview.Candidates) != 1 || preview.OutOfWindow != 1 {
		t.Fatalf("unexpected bounded preview: candidates=%d out_of_window=%d want=1/1", len(preview.Candidates), preview.OutOfWindow)
	}
}

func TestImportService_PreviewDefaultsWindowForConfiguredSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newImportFixture(t, jsonSource("a", feedA))
	f.fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16", "2025-09-20")

	preview, err := f.service.Preview(ctx, PreviewInput{SourceID: "a"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Candidates) != 1 || preview.OutOfWindow != 1 {
		t.Fatalf("unexpected preview: candidates=%d out_of_window=%d want=1/1", len(preview.Candidates), preview.OutOfWindow)
	}

	wideStart, wideEnd := 0, 60
	wide, err := f.service.Preview(ctx, PreviewInput{SourceID: "a", StartOffsetDays: &wideStart, EndOffsetDays: &wideEnd})
	if err != nil {
		t.Fatalf("wide preview: %v", err)
	}
	if len(wide.Candidates) != 2 {
		t.Fatalf("unexpected wide candidate count: got=%d want=2", len(wide.Candidates))
	}
	ids := []string{wide.Candidates[0].Match.SourceMatchID, wide.Candidates[1].Match.SourceMatchID}

	// without offsets the selection is held to the same default window as the preview
	report, err := f.service.ImportSelected(ctx, ImportSelectedInput{SourceID: "a", SourceMatchIDs: ids})
	if err != nil {
		t.Fatalf("import selected: %v", err)
	}
	if report.Added != len(preview.Candidates) || report.OutOfWindow != preview.OutOfWindow {
		t.Fatalf("unexpected report: added=%d out_of_window=%d want=%d/%d",
			report.Added, report.OutOfWindow, len(preview.Candidates), preview.OutOfWindow)
	}
}

type recordingDiscoverer struct {
	mu    sync.Mutex
	items []match.Match
}

func (d *recordingDiscoverer) DiscoverForMatches(_ context.Context, items []match.Match) (LogoDiscoveryResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, items...)
	return LogoDiscoveryResult{Checked: len(items)}, nil
}

func TestImportService_HandsNewMatchesToLogoDiscovery(t *testing.T) {
	t.Parallel()

	f := newImportFixture(t, jsonSource("a", feedA))
	f.fetcher.documents[feedA] = jsonFeed("League A", "2025-08-16")
	discoverer := &recordingDiscoverer{}
	f.service.logos = discoverer
	f.service.spawn = func(fn func()) { fn() }

	if _, err := f.service.ImportAll(context.Background(), ImportAllInput{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(discoverer.items) != 1 {
		t.Fatalf("unexpected discovered items: got=%d want=1", len(discoverer.items))
	}
}

func TestImportService_RunHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	runRepo := importrunmock.NewRepository(t)
	runRepo.On("List", mock.Anything, 50).Return([]importrun.Run{{ID: "run-1", Status: importrun.StatusCompleted}}, nil).Once()
	runRepo.On("GetByID", mock.Anything, "run-1").Return(importrun.Run{ID: "run-1"}, true, nil).Once()
	runRepo.On("GetByID", mock.Anything, "missing").Return(importrun.Run{}, false, nil).Once()

	service := NewImportService(
		memory.NewMatchRepository(nil),
		memory.NewTombstoneRepository(),
		memory.NewFeedSourceRepository(nil),
		runRepo,
		newStubFetcher(),
		nil,
		ImportConfig{},
		nil,
	)

	runs, err := service.ListRuns(ctx, 5000)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if _, err := service.GetRun(ctx, "run-1"); err != nil {
		t.Fatalf("get run: %v", err)
	}
	if _, err := service.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetRun(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
