package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("matchfeed/internal/interfaces/httpapi")

// RequestTracing opens the server span. Its name starts as the method and is
// replaced by the matched route pattern once the mux has routed the request.
func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "matchfeed-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

// nameRouteSpan renames the server span after routing so ids in the path do
// not explode span-name cardinality.
func nameRouteSpan(ctx context.Context, r *http.Request) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	pattern := strings.TrimSpace(r.Pattern)
	if pattern == "" {
		span.SetName(r.Method + " unmatched")
		return
	}
	if !strings.Contains(pattern, " ") {
		pattern = r.Method + " " + pattern
	}
	span.SetName(pattern)
	span.SetAttributes(attribute.String("http.route", routeOf(pattern)))
}

func routeOf(pattern string) string {
	if _, route, ok := strings.Cut(pattern, " "); ok {
		return route
	}
	return pattern
}

// startSpan only opens spans for handlers that already run under a request
// span; middleware and response helpers stay inside the server span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !strings.HasPrefix(name, "httpapi.Handler.") {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return apiTracer.Start(ctx, name)
}
