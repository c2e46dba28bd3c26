package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

// RouterOptions carries the per-deployment knobs of the HTTP surface.
type RouterOptions struct {
	AdminToken         string
	InternalJobToken   string
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
}

// NewRouter wires every route behind tracing, request logging, CORS and panic
// recovery, outermost first.
func NewRouter(handler *Handler, logger *logging.Logger, opts RouterOptions) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, opts.SwaggerEnabled)
	registerPublicRoutes(mux, handler)
	registerAdminRoutes(mux, handler, opts.AdminToken)
	mux.Handle("POST /v1/internal/jobs/import-all", RequireInternalJobToken(opts.InternalJobToken, http.HandlerFunc(handler.RunImportAllJob)))

	return RequestTracing(RequestLogging(logger, CORS(opts.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

// recoverPanic turns a handler panic into a 500 envelope and names the server
// span after the matched route on the way out.
func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := r.WithContext(ctx)
		defer func() {
			nameRouteSpan(ctx, req)
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				recordRequestError(ctx, fmt.Errorf("panic: %v", rec))
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireAdminToken(adminToken, fn))
	}

	admin("POST /v1/admin/matches", handler.CreateMatch)
	admin("PUT /v1/admin/matches/{matchID}", handler.UpdateMatch)
	admin("DELETE /v1/admin/matches/{matchID}", handler.DeleteMatch)
	admin("POST /v1/admin/matches/{matchID}/featured", handler.ToggleFeaturedMatch)
	admin("POST /v1/admin/matches/bulk-delete", handler.BulkDeleteMatches)
	admin("POST /v1/admin/matches/bulk-status", handler.BulkUpdateMatchStatus)
	admin("POST /v1/admin/matches/bulk-clear-streams", handler.BulkClearStreamLinks)

	admin("GET /v1/admin/sources", handler.ListFeedSources)
	admin("POST /v1/admin/sources", handler.CreateFeedSource)
	admin("GET /v1/admin/sources/{sourceID}", handler.GetFeedSource)
	admin("PUT /v1/admin/sources/{sourceID}", handler.UpdateFeedSource)
	admin("DELETE /v1/admin/sources/{sourceID}", handler.DeleteFeedSource)
	admin("POST /v1/admin/sources/{sourceID}/import", handler.ImportFeedSource)
	admin("POST /v1/admin/sources/{sourceID}/preview", handler.PreviewFeedSource)
	admin("POST /v1/admin/sources/{sourceID}/import-selected", handler.ImportSelectedFromSource)

	admin("POST /v1/admin/import/run", handler.RunImportAll)
	admin("POST /v1/admin/import/schedule", handler.ScheduleImportAll)
	admin("GET /v1/admin/import/runs", handler.ListImportRuns)
	admin("GET /v1/admin/import/runs/{runID}", handler.GetImportRun)
	admin("POST /v1/admin/import/txt/preview", handler.PreviewTXTImport)
	admin("POST /v1/admin/import/txt", handler.ImportTXT)

	admin("GET /v1/admin/teams", handler.ListManagedTeams)
	admin("PUT /v1/admin/teams", handler.UpsertManagedTeam)
	admin("DELETE /v1/admin/teams/{nameKey}", handler.DeleteManagedTeam)
	admin("POST /v1/admin/teams/search-logo", handler.SearchTeamLogo)
}
