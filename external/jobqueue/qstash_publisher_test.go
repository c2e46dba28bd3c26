package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/platform/resilience"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

func TestQStashPublisherEnqueue_SendsHeaders(t *testing.T) {
	t.Parallel()

	var gotPath, gotDelay, gotDedup, gotForward, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDelay = r.Header.Get("Upstash-Delay")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotForward = r.Header.Get("Upstash-Forward-X-Internal-Job-Token")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		HTTPClient:       server.Client(),
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://matchfeed.example.com/",
		InternalJobToken: "job-secret",
	}, logging.NewNop())

	payload := usecase.ImportJobPayload{DispatchID: "import-all-1", Overwrite: true}
	if err := publisher.Enqueue(context.Background(), usecase.ImportAllJobPath, payload, 90*time.Second, "import-all-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	wantPath := "/v2/publish/https://matchfeed.example.com" + usecase.ImportAllJobPath
	if gotPath != wantPath {
		t.Fatalf("unexpected publish path: got=%s want=%s", gotPath, wantPath)
	}
	if gotDelay != "90s" || gotDedup != "import-all-1" || gotForward != "job-secret" {
		t.Fatalf("unexpected headers: delay=%s dedup=%s forward=%s", gotDelay, gotDedup, gotForward)
	}
	if !strings.Contains(gotBody, `"dispatch_id":"import-all-1"`) {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestQStashPublisherEnqueue_BreakerOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		HTTPClient:    server.Client(),
		BaseURL:       server.URL,
		TargetBaseURL: "https://matchfeed.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
		t.Fatalf("expected first enqueue to fail")
	}
	err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestQStashPublisherEnqueue_RejectsMissingTarget(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: "https://qstash.example.com"}, logging.NewNop())
	if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
		t.Fatalf("expected error for missing target base url")
	}
}

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0:                       "0s",
		-time.Second:            "0s",
		1500 * time.Millisecond: "2s",
		5 * time.Minute:         "300s",
	}
	for in, want := range cases {
		if got := normalizeDelay(in); got != want {
			t.Fatalf("unexpected delay: in=%s got=%s want=%s", in, got, want)
		}
	}
}
