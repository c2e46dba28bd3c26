package feedhttp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/platform/resilience"
	"github.com/riskibarqy/matchfeed/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultMaxBodyBytes = 8 << 20
	defaultUserAgent    = "matchfeed-importer/1.0"
)

var errFeedTransient = crerr.New("feed transient failure")

// ErrFeedTooLarge is returned when a document exceeds the configured size limit.
var ErrFeedTooLarge = crerr.New("feed document exceeds size limit")

type ClientConfig struct {
	HTTPClient     *http.Client
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	MaxBodyBytes   int64
	UserAgent      string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client downloads raw feed documents over HTTP with retries, one circuit breaker
// per upstream host and deduplication of concurrent fetches of the same URL.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	maxBodyBytes int64
	userAgent    string
	logger       *logging.Logger
	breakers     *resilience.BreakerSet
	flight       resilience.SingleFlight[[]byte]
}

var _ usecase.FeedFetcher = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Client{
		httpClient:   httpClient,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
		logger:       logger,
		breakers:     resilience.NewBreakerSet(cfg.CircuitBreaker),
	}
}

func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid feed url %q", usecase.ErrInvalidInput, rawURL)
	}
	fullURL := parsed.String()

	var breaker *resilience.CircuitBreaker
	if c.breakers.Enabled() {
		breaker = c.breakers.For(parsed.Host)
	}

	raw, err, shared := c.flight.Do(fullURL, func() ([]byte, error) {
		if breaker == nil {
			return c.executeRequest(ctx, fullURL)
		}
		var body []byte
		err := breaker.Do(func() error {
			var reqErr error
			body, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isTransient)
		return body, err
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "host", parsed.Host, "state", breaker.State())
		return nil, fmt.Errorf("%w: feed host %s is temporarily unavailable", usecase.ErrDependencyUnavailable, parsed.Host)
	}
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "feed fetch joined in-flight request", "url", fullURL)
	}
	return raw, nil
}

func isTransient(err error) bool {
	return stderrors.Is(err, errFeedTransient)
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json, text/plain;q=0.9, */*;q=0.5")
		req.Header.Set("user-agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, crerr.Wrap(ctxErr, "send feed request")
			}
			lastErr = fmt.Errorf("%w: send request: %v", errFeedTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				if int64(len(raw)) > c.maxBodyBytes {
					return nil, crerr.Wrapf(ErrFeedTooLarge, "limit=%d bytes", c.maxBodyBytes)
				}
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "feed request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

// BreakerStates exposes per-host breaker state for health reporting.
func (c *Client) BreakerStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 200
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}
