package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/matchfeed/external/feedhttp"
	"github.com/riskibarqy/matchfeed/external/jobqueue"
	"github.com/riskibarqy/matchfeed/external/logoprobe"
	"github.com/riskibarqy/matchfeed/internal/config"
	"github.com/riskibarqy/matchfeed/internal/domain/feedsource"
	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/settings"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	cacherepo "github.com/riskibarqy/matchfeed/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchfeed/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchfeed/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchfeed/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
	"github.com/riskibarqy/matchfeed/internal/platform/resilience"
	"github.com/riskibarqy/matchfeed/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const memoryImportRunCapacity = 200

type repositories struct {
	matches    match.Repository
	tombstones match.TombstoneRepository
	sources    feedsource.Repository
	runs       importrun.Repository
	settings   settings.Repository
	teams      teamlogo.Repository
}

// NewHTTPServer wires storage, upstream clients and services into the HTTP server.
// The returned cleanup closes resources owned by the server.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, closeRepos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	fetcher := feedhttp.NewClient(feedhttp.ClientConfig{
		Timeout:      cfg.ImportFetchTimeout,
		MaxRetries:   cfg.FeedHTTPMaxRetries,
		MaxBodyBytes: cfg.ImportMaxFeedBytes,
		UserAgent:    cfg.ServiceName + "/" + cfg.ServiceVersion,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})

	var resolver usecase.LogoResolver
	if cfg.LogoDiscoveryEnabled {
		resolver = logoprobe.New(logoprobe.Config{
			Timeout:     cfg.LogoProbeTimeout,
			Concurrency: cfg.LogoProbeConcurrency,
			Logger:      logger,
		})
	}

	teamLogoSvc := usecase.NewTeamLogoService(repos.teams, resolver, usecase.TeamLogoConfig{
		Workers: cfg.LogoDiscoveryWorkers,
	}, logger)

	var discoverer usecase.LogoDiscoverer
	if cfg.LogoDiscoveryEnabled {
		discoverer = teamLogoSvc
	}

	matchSvc := usecase.NewMatchService(repos.matches, repos.tombstones, repos.settings, teamLogoSvc, logger)
	feedSourceSvc := usecase.NewFeedSourceService(repos.sources)
	importSvc := usecase.NewImportService(
		repos.matches,
		repos.tombstones,
		repos.sources,
		repos.runs,
		fetcher,
		discoverer,
		usecase.ImportConfig{
			FetchTimeout: cfg.ImportFetchTimeout,
			LiveWindow:   cfg.ImportLiveWindow,
			Location:     cfg.ImportLocation,
		},
		logger,
	)
	importJobSvc := usecase.NewImportJobService(buildJobQueue(cfg, logger), logger)

	handler := httpapi.NewHandler(matchSvc, feedSourceSvc, importSvc, importJobSvc, teamLogoSvc, cfg.ImportJobDelayDefault, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterOptions{
		AdminToken:         cfg.AdminAPIToken,
		InternalJobToken:   cfg.InternalJobToken,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = closeRepos()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	logger.Info("http server configured",
		"addr", cfg.HTTPAddr,
		"storage", cfg.StorageDriver,
		"cache_enabled", cfg.CacheEnabled,
		"logo_discovery", cfg.LogoDiscoveryEnabled,
		"qstash_enabled", cfg.QStashEnabled,
		"import_timezone", cfg.ImportTimezone,
	)

	return server, closeRepos, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, func() error, error) {
	var (
		repos   repositories
		closeFn = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		repos = repositories{
			matches:    memory.NewMatchRepository(nil),
			tombstones: memory.NewTombstoneRepository(),
			sources:    memory.NewFeedSourceRepository(nil),
			runs:       memory.NewImportRunRepository(memoryImportRunCapacity),
			settings:   memory.NewSettingsRepository(),
			teams:      memory.NewTeamLogoRepository(),
		}
	default:
		db, err := openDB(cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		closeFn = db.Close
		repos = repositories{
			matches:    postgres.NewMatchRepository(db),
			tombstones: postgres.NewTombstoneRepository(db),
			sources:    postgres.NewFeedSourceRepository(db),
			runs:       postgres.NewImportRunRepository(db),
			settings:   postgres.NewSettingsRepository(db),
			teams:      postgres.NewTeamLogoRepository(db),
		}
	}

	if cfg.CacheEnabled {
		store := cacherepo.NewStore(cfg.CacheTTL)
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
		repos.teams = cacherepo.NewTeamLogoRepository(repos.teams, store)
	}

	return repos, closeFn, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary, cfg.ServiceName)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func buildJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		logger.Info("qstash disabled; scheduled imports are accepted but not delivered", "reason", "QSTASH_ENABLED=false")
		return usecase.NewNoopJobQueue()
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
}
