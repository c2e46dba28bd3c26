package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/matchfeed/internal/config"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

type stopFunc struct {
	name string
	fn   func(context.Context) error
}

// Telemetry owns every observability sink of the process. Sinks stop in
// reverse start order so the log shipper drains last.
type Telemetry struct {
	Logger *logging.Logger
	stops  []stopFunc
}

// Start brings up logging, tracing and profiling as configured. On error the
// sinks already started are stopped before returning.
func Start(cfg config.Config) (*Telemetry, error) {
	t := &Telemetry{Logger: logging.NewJSON(cfg.LogLevel)}

	if cfg.BetterStackEnabled {
		logger, drain, err := newBetterStackLogger(cfg)
		if err != nil {
			return nil, err
		}
		t.Logger = logger
		t.add("betterstack", drain)
		logger.Info("betterstack enabled", "endpoint", normalizeBetterStackEndpoint(cfg.BetterStackEndpoint), "min_level", cfg.BetterStackMinLevel.String())
	}
	logging.SetDefault(t.Logger)

	steps := []struct {
		name  string
		start func(config.Config, *logging.Logger) (func(context.Context) error, error)
	}{
		{"uptrace", startUptrace},
		{"pyroscope", startPyroscope},
		{"pprof", startPprof},
	}
	for _, step := range steps {
		stop, err := step.start(cfg, t.Logger)
		if err != nil {
			_ = t.Shutdown(context.Background())
			return nil, fmt.Errorf("start %s: %w", step.name, err)
		}
		if stop != nil {
			t.add(step.name, stop)
		}
	}
	return t, nil
}

func (t *Telemetry) add(name string, fn func(context.Context) error) {
	t.stops = append(t.stops, stopFunc{name: name, fn: fn})
}

// Shutdown stops every sink and joins their errors.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.stops) - 1; i >= 0; i-- {
		stop := t.stops[i]
		if err := stop.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", stop.name, err))
		}
	}
	t.stops = nil
	return errors.Join(errs...)
}

func startUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	logging.SetMirror(nil)
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled)
		return nil, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	}
	logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv, "logs_enabled", cfg.UptraceLogsEnabled)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}

func startPyroscope(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"service": cfg.ServiceName,
			"version": cfg.ServiceVersion,
			"storage": cfg.StorageDriver,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
		},
	})
	if err != nil {
		return nil, err
	}
	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)

	return func(context.Context) error { return profiler.Stop() }, nil
}

// startPprof serves net/http/pprof on its own listener, away from the public mux.
func startPprof(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if !cfg.PprofEnabled {
		return nil, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: cfg.PprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	return srv.Shutdown, nil
}
