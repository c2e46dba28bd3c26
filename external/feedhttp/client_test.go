package feedhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/platform/resilience"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

func newTestClient(server *httptest.Server, maxRetries int, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		MaxRetries:     maxRetries,
		RetryBackoff:   time.Millisecond,
		MaxBodyBytes:   64,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClientFetch_ReturnsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("user-agent") == "" {
			t.Errorf("expected user-agent header")
		}
		_, _ = w.Write([]byte(`{"name":"League","matches":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server, 0, resilience.CircuitBreakerConfig{})
	raw, err := client.Fetch(context.Background(), server.URL+"/feed.json")
	if err != nil {
		t.Fatalf("fetch feed: %v", err)
	}
	if string(raw) != `{"name":"League","matches":[]}` {
		t.Fatalf("unexpected body: got=%s", raw)
	}
}

func TestClientFetch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := newTestClient(server, 2, resilience.CircuitBreakerConfig{})
	raw, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch feed: %v", err)
	}
	if string(raw) != "ok" || calls.Load() != 2 {
		t.Fatalf("unexpected retry result: body=%s calls=%d", raw, calls.Load())
	}
}

func TestClientFetch_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer server.Close()

	client := newTestClient(server, 3, resilience.CircuitBreakerConfig{})
	if _, err := client.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("unexpected call count: got=%d want=1", calls.Load())
	}
}

func TestClientFetch_RejectsOversizedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 65))
	}))
	defer server.Close()

	client := newTestClient(server, 0, resilience.CircuitBreakerConfig{})
	_, err := client.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFeedTooLarge) {
		t.Fatalf("expected ErrFeedTooLarge, got %v", err)
	}
}

func TestClientFetch_InvalidURL(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	_, err := client.Fetch(context.Background(), "ftp://example.com/feed")
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClientFetch_OpensBreakerPerHost(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	if _, err := client.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	_, err := client.Fetch(context.Background(), server.URL)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("unexpected upstream calls: got=%d want=1", calls.Load())
	}

	states := client.BreakerStates()
	if len(states) != 1 {
		t.Fatalf("unexpected breaker count: got=%d want=1", len(states))
	}
	for _, state := range states {
		if state != resilience.CircuitStateOpen {
			t.Fatalf("unexpected breaker state: got=%s want=%s", state, resilience.CircuitStateOpen)
		}
	}
}
