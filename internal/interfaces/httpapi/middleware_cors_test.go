package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantMethods bool
	}{
		{
			name:       "configured origin",
			allowed:    []string{"https://admin.matchfeed.app/"},
			method:     http.MethodGet,
			origin:     "https://Admin.Matchfeed.app",
			wantStatus: http.StatusOK,
			wantOrigin: "https://Admin.Matchfeed.app",
		},
		{
			name:        "wildcard preflight",
			allowed:     []string{"*"},
			method:      http.MethodOptions,
			origin:      "https://admin.matchfeed.app",
			preflight:   true,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "*",
			wantMethods: true,
		},
		{
			name:       "unknown origin passes through without header",
			allowed:    []string{"https://allowed.example.com"},
			method:     http.MethodGet,
			origin:     "https://not-allowed.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown origin preflight refused",
			allowed:    []string{"https://allowed.example.com"},
			method:     http.MethodOptions,
			origin:     "https://not-allowed.example.com",
			preflight:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no origin",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "/v1/matches", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status got=%d want=%d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow origin got=%q want=%q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods") != ""; got != tt.wantMethods {
				t.Fatalf("allow methods present got=%v want=%v", got, tt.wantMethods)
			}
		})
	}
}
