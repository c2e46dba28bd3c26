package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	matchService      *usecase.MatchService
	feedSourceService *usecase.FeedSourceService
	importService     *usecase.ImportService
	importJobService  *usecase.ImportJobService
	teamLogoService   *usecase.TeamLogoService
	defaultJobDelay   time.Duration
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	feedSourceService *usecase.FeedSourceService,
	importService *usecase.ImportService,
	importJobService *usecase.ImportJobService,
	teamLogoService *usecase.TeamLogoService,
	defaultJobDelay time.Duration,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:      matchService,
		feedSourceService: feedSourceService,
		importService:     importService,
		importJobService:  importJobService,
		teamLogoService:   teamLogoService,
		defaultJobDelay:   defaultJobDelay,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a JSON body into dst. An empty body is accepted when
// allowEmpty is set, leaving dst at its zero value.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return h.validateRequest(ctx, dst)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func pathValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: query %s must be a boolean", usecase.ErrInvalidInput, name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}
