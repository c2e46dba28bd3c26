package logoprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

func TestProberResolveLogo_ReturnsFirstHitInOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method: got=%s want=HEAD", r.Method)
		}
		switch r.URL.Path {
		case "/b.png", "/d.png":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	prober := New(Config{
		Timeout:     time.Second,
		Concurrency: 2,
		Logger:      logging.NewNop(),
		Candidates: func(string, string) []string {
			return []string{server.URL + "/a.png", server.URL + "/b.png", server.URL + "/c.png", server.URL + "/d.png"}
		},
	})

	got, found, err := prober.ResolveLogo(context.Background(), "Arsenal FC", "Premier League")
	if err != nil {
		t.Fatalf("resolve logo: %v", err)
	}
	if !found || got != server.URL+"/b.png" {
		t.Fatalf("unexpected logo: got=%s found=%v want=%s", got, found, server.URL+"/b.png")
	}
}

func TestProberResolveLogo_StopsAfterFirstWindowHit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/a.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := New(Config{
		Concurrency: 1,
		Logger:      logging.NewNop(),
		Candidates: func(string, string) []string {
			return []string{server.URL + "/a.png", server.URL + "/b.png", server.URL + "/c.png"}
		},
	})

	if _, found, err := prober.ResolveLogo(context.Background(), "Team", ""); err != nil || !found {
		t.Fatalf("unexpected result: found=%v err=%v", found, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("unexpected probe count: got=%d want=1", calls.Load())
	}
}

func TestProberResolveLogo_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := New(Config{
		Logger: logging.NewNop(),
		Candidates: func(string, string) []string {
			return []string{server.URL + "/missing.png"}
		},
	})

	got, found, err := prober.ResolveLogo(context.Background(), "Nobody United", "")
	if err != nil {
		t.Fatalf("resolve logo: %v", err)
	}
	if found || got != "" {
		t.Fatalf("expected no logo, got=%s", got)
	}
}

func TestProberResolveLogo_CanceledContext(t *testing.T) {
	t.Parallel()

	prober := New(Config{
		Logger: logging.NewNop(),
		Candidates: func(string, string) []string {
			return []string{"http://127.0.0.1:1/logo.png"}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := prober.ResolveLogo(ctx, "Team", ""); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestProberResolveLogo_EmptyTeam(t *testing.T) {
	t.Parallel()

	prober := New(Config{Logger: logging.NewNop()})
	_, found, err := prober.ResolveLogo(context.Background(), "  ", "")
	if err != nil || found {
		t.Fatalf("unexpected result: found=%v err=%v", found, err)
	}
}
