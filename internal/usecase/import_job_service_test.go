package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

type capturedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type captureQueue struct {
	jobs []capturedJob
	err  error
}

func (q *captureQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, capturedJob{path: path, payload: payload, delay: delay, dedupID: dedupID})
	return nil
}

func TestImportJobService_ScheduleImportAll(t *testing.T) {
	t.Parallel()

	queue := &captureQueue{}
	service := NewImportJobService(queue, nil)
	service.now = func() time.Time { return time.Date(2025, 8, 16, 12, 0, 30, 0, time.UTC) }

	job, err := service.ScheduleImportAll(context.Background(), ScheduleImportInput{Delay: 10 * time.Minute, Overwrite: true})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].path != ImportAllJobPath || queue.jobs[0].delay != 10*time.Minute {
		t.Fatalf("unexpected queued jobs: %+v", queue.jobs)
	}
	payload, ok := queue.jobs[0].payload.(ImportJobPayload)
	if !ok || !payload.Overwrite || payload.DispatchID != job.DispatchID {
		t.Fatalf("unexpected payload: %+v", queue.jobs[0].payload)
	}
	if want := "import-all-overwrite-1755346200"; job.DispatchID != want {
		t.Fatalf("unexpected dispatch id: got=%s want=%s", job.DispatchID, want)
	}
}

func TestImportJobService_ScheduleErrors(t *testing.T) {
	t.Parallel()

	service := NewImportJobService(&captureQueue{err: errors.New("qstash down")}, nil)
	if _, err := service.ScheduleImportAll(context.Background(), ScheduleImportInput{}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := service.ScheduleImportAll(context.Background(), ScheduleImportInput{Delay: -time.Second}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
