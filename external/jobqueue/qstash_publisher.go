package jobqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/platform/resilience"
	"github.com/riskibarqy/matchfeed/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

// QStashPublisherConfig configures delivery of delayed import jobs through
// Upstash QStash. TargetBaseURL is the public base URL of this service.
type QStashPublisherConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
	circuitEnabled   bool
}

var _ usecase.JobQueue = (*QStashPublisher)(nil)

type publishRequest struct {
	path        string
	targetURL   string
	publishURL  string
	body        []byte
	delay       time.Duration
	dedupID     string
	curlPreview string
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := cfg.CircuitBreaker.Normalize()

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &QStashPublisher{
		client:           client,
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:   breakerCfg.Enabled,
	}
}

// Enqueue asks QStash to POST payload to path on this service after delay.
func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("%w: qstash is temporarily unavailable: %v", usecase.ErrDependencyUnavailable, err)
		}
	}

	pub, err := p.prepare(path, payload, delay, deduplicationID)
	if err != nil {
		return err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", pub.targetURL),
			attribute.String("qstash.path", pub.path),
			attribute.String("qstash.deduplication_id", pub.dedupID),
			attribute.String("qstash.request_curl_preview", pub.curlPreview),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request", "path", pub.path, "target_url", pub.targetURL, "curl_preview", pub.curlPreview)

	callErr := p.send(ctx, pub)
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	p.logger.InfoContext(ctx, "import job published", "path", pub.path, "delay", normalizeDelay(delay), "deduplication_id", pub.dedupID)
	return nil
}

func (p *QStashPublisher) prepare(path string, payload any, delay time.Duration, deduplicationID string) (publishRequest, error) {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return publishRequest{}, crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "marshal job payload")
	}

	pub := publishRequest{
		path:      path,
		targetURL: targetBaseURL + path,
		body:      body,
		delay:     delay,
		dedupID:   strings.TrimSpace(deduplicationID),
	}
	pub.publishURL = baseURL + "/v2/publish/" + pub.targetURL
	pub.curlPreview = buildQStashCurlPreview(pub, p.retries, p.internalJobToken != "")
	return pub, nil
}

func (p *QStashPublisher) send(ctx context.Context, pub publishRequest) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pub.publishURL, strings.NewReader(string(pub.body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if pub.delay > 0 {
		req.Header.Set("Upstash-Delay", normalizeDelay(pub.delay))
	}
	if pub.dedupID != "" {
		req.Header.Set("Upstash-Deduplication-Id", pub.dedupID)
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, pub.targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("publish qstash job status=%d target_url=%s body=%s", resp.StatusCode, pub.targetURL, strings.TrimSpace(string(raw)))
	if isQStashRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: %s", errQStashTransient, msg)
	}
	return crerr.New(msg)
}

func normalizeDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildQStashCurlPreview renders a redacted curl equivalent of the publish call for logs.
func buildQStashCurlPreview(pub publishRequest, retries int, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	write := func(parts ...string) {
		for _, part := range parts {
			if buf.Len() > 0 {
				_ = buf.WriteByte(' ')
			}
			_, _ = buf.WriteString(part)
		}
	}
	header := func(value string) {
		write("-H", shellQuote(value))
	}

	write("curl", "-X", "POST", shellQuote(pub.publishURL))
	header("Authorization: Bearer ***")
	header("Content-Type: application/json")
	header("Upstash-Method: POST")
	if retries > 0 {
		header("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if pub.delay > 0 {
		header("Upstash-Delay: " + normalizeDelay(pub.delay))
	}
	if pub.dedupID != "" {
		header("Upstash-Deduplication-Id: " + pub.dedupID)
	}
	if withForwardToken {
		header("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	write("-d", shellQuote(truncateForLog(string(pub.body), 4096)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (p *QStashPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errQStashTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
