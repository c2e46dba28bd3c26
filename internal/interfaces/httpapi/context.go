package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	clientInfoContextKey   contextKey = "client_info"
	requestErrorContextKey contextKey = "request_error"
)

const unknownCountry = "ZZ"

var (
	clientIPHeaders      = []string{"Fly-Client-IP", "CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}
	clientCountryHeaders = []string{"Fly-Client-Country", "CF-IPCountry", "X-Vercel-IP-Country", "CloudFront-Viewer-Country"}
)

// clientInfo is what the edge tells us about the caller. It is only logged.
type clientInfo struct {
	IP      string
	Country string
}

func clientInfoFromRequest(r *http.Request) clientInfo {
	info := clientInfo{Country: unknownCountry}
	for _, header := range clientIPHeaders {
		if ip := firstIP(r.Header.Get(header)); ip != "" {
			info.IP = ip
			break
		}
	}
	if info.IP == "" {
		info.IP = firstIP(r.RemoteAddr)
	}
	for _, header := range clientCountryHeaders {
		if code := countryCode(r.Header.Get(header)); code != "" {
			info.Country = code
			break
		}
	}
	return info
}

func withClientInfo(ctx context.Context, info clientInfo) context.Context {
	return context.WithValue(ctx, clientInfoContextKey, info)
}

func clientInfoFromContext(ctx context.Context) (clientInfo, bool) {
	info, ok := ctx.Value(clientInfoContextKey).(clientInfo)
	return info, ok
}

// requestError carries an unmapped handler error up to RequestLogging.
type requestError struct {
	err error
}

func withRequestErrorSlot(ctx context.Context) (context.Context, *requestError) {
	slot := &requestError{}
	return context.WithValue(ctx, requestErrorContextKey, slot), slot
}

func recordRequestError(ctx context.Context, err error) {
	if slot, ok := ctx.Value(requestErrorContextKey).(*requestError); ok && slot.err == nil {
		slot.err = err
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// firstIP takes the left-most entry of a forwarded list and drops any port.
func firstIP(raw string) string {
	value, _, _ := strings.Cut(raw, ",")
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	if ip := net.ParseIP(value); ip != nil {
		return ip.String()
	}
	return ""
}

func countryCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return code
}
