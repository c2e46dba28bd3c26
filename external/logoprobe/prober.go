package logoprobe

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/usecase"
	"github.com/sourcegraph/conc/iter"
	"github.com/valyala/fasthttp"
)

const defaultUserAgent = "matchfeed-logo-probe/1.0"

type Config struct {
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
	Logger      *logging.Logger
	// Candidates overrides the URL candidate builder; defaults to teamlogo.Candidates.
	Candidates func(teamName, leagueName string) []string
}

// Prober checks guessed logo URLs with HEAD requests and returns the first
// candidate, in pattern priority order, that answers with a 2xx status.
type Prober struct {
	client      *fasthttp.Client
	timeout     time.Duration
	concurrency int
	userAgent   string
	logger      *logging.Logger
	candidates  func(teamName, leagueName string) []string
}

var _ usecase.LogoResolver = (*Prober)(nil)

func New(cfg Config) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Candidates == nil {
		cfg.Candidates = teamlogo.Candidates
	}

	return &Prober{
		client: &fasthttp.Client{
			Name:                     cfg.UserAgent,
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			MaxConnsPerHost:          cfg.Concurrency * 2,
			NoDefaultUserAgentHeader: true,
		},
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		userAgent:   cfg.UserAgent,
		logger:      cfg.Logger,
		candidates:  cfg.Candidates,
	}
}

func (p *Prober) ResolveLogo(ctx context.Context, teamName, leagueName string) (string, bool, error) {
	candidates := p.candidates(teamName, leagueName)
	if len(candidates) == 0 {
		return "", false, nil
	}

	mapper := iter.Mapper[string, bool]{MaxGoroutines: p.concurrency}
	for start := 0; start < len(candidates); start += p.concurrency {
		if err := ctx.Err(); err != nil {
			return "", false, crerr.Wrap(err, "probe logo candidates")
		}

		end := min(start+p.concurrency, len(candidates))
		window := candidates[start:end]
		hits := mapper.Map(window, func(candidate *string) bool {
			return p.exists(ctx, *candidate)
		})
		for i, hit := range hits {
			if hit {
				p.logger.DebugContext(ctx, "logo candidate found", "team", teamName, "url", window[i])
				return window[i], true, nil
			}
		}
	}

	return "", false, nil
}

func (p *Prober) exists(ctx context.Context, rawURL string) bool {
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timeout = min(timeout, remaining)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodHead)
	req.Header.SetUserAgent(p.userAgent)
	resp.SkipBody = true

	if err := p.client.DoTimeout(req, resp, timeout); err != nil {
		p.logger.DebugContext(ctx, "logo probe failed", "url", rawURL, "error", err)
		return false
	}
	status := resp.StatusCode()
	return status >= fasthttp.StatusOK && status < fasthttp.StatusMultipleChoices
}
