package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

const ImportAllJobPath = "/v1/internal/jobs/import-all"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type ScheduleImportInput struct {
	Delay     time.Duration
	Overwrite bool
}

type ScheduledJob struct {
	DispatchID string    `json:"dispatchId"`
	Path       string    `json:"path"`
	RunAt      time.Time `json:"runAt"`
	Overwrite  bool      `json:"overwrite"`
}

// ImportJobPayload is the body delivered back to the internal import route.
type ImportJobPayload struct {
	DispatchID string `json:"dispatch_id"`
	Overwrite  bool   `json:"overwrite"`
}

// ImportJobService defers an import-all run through the job queue.
type ImportJobService struct {
	queue  JobQueue
	bucket time.Duration
	logger *logging.Logger
	now    func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewImportJobService(queue JobQueue, logger *logging.Logger) *ImportJobService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportJobService{
		queue:  queue,
		bucket: time.Minute,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ImportJobService) ScheduleImportAll(ctx context.Context, input ScheduleImportInput) (ScheduledJob, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportJobService.ScheduleImportAll")
	defer span.End()

	if input.Delay < 0 || input.Delay > 7*24*time.Hour {
		return ScheduledJob{}, fmt.Errorf("%w: delay must be between 0 and 168h", ErrInvalidInput)
	}

	runAt := s.now().UTC().Add(input.Delay)
	dispatchID := importDedupKey(runAt, s.bucket, input.Overwrite)
	payload := ImportJobPayload{DispatchID: dispatchID, Overwrite: input.Overwrite}
	if err := s.queue.Enqueue(ctx, ImportAllJobPath, payload, input.Delay, dispatchID); err != nil {
		return ScheduledJob{}, fmt.Errorf("%w: enqueue import job: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "import job scheduled", "dispatch_id", dispatchID, "run_at", runAt, "overwrite", input.Overwrite)
	return ScheduledJob{
		DispatchID: dispatchID,
		Path:       ImportAllJobPath,
		RunAt:      runAt,
		Overwrite:  input.Overwrite,
	}, nil
}

func importDedupKey(runAt time.Time, bucket time.Duration, overwrite bool) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	mode := "append"
	if overwrite {
		mode = "overwrite"
	}
	raw := fmt.Sprintf("import-all-%s-%d", mode, runAt.Truncate(bucket).Unix())
	return dedupUnsafeCharRegex.ReplaceAllString(raw, "_")
}
