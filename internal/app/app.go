package app

import (
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/htdash/htdash/external/chpp"
	"github.com/htdash/htdash/internal/config"
	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/domain/player"
	cacherepo "github.com/htdash/htdash/internal/infrastructure/repository/cache"
	"github.com/htdash/htdash/internal/infrastructure/repository/postgres"
	"github.com/htdash/htdash/internal/interfaces/httpapi"
	basecache "github.com/htdash/htdash/internal/platform/cache"
	"github.com/htdash/htdash/internal/platform/logging"
	"github.com/htdash/htdash/internal/platform/resilience"
	"github.com/htdash/htdash/internal/usecase"
)

// NewHTTPServer builds the full service: database, repositories, the CHPP
// client, use cases, and the HTTP router. The returned cleanup closes the
// database pool and must run after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect(
		"postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	cleanup := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("close database", "error", closeErr)
		}
	}

	var playerRepo player.Repository = postgres.NewPlayerRepository(db)
	var matchRepo match.Repository = postgres.NewMatchRepository(db)
	runRepo := postgres.NewSyncRunRepository(db)

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		playerRepo = cacherepo.NewPlayerRepository(playerRepo, store)
		matchRepo = cacherepo.NewMatchRepository(matchRepo, store)
	}

	feed, err := chpp.NewClient(chpp.ClientConfig{
		BaseURL: cfg.CHPPBaseURL,
		Credentials: chpp.Credentials{
			ConsumerKey:    cfg.CHPPConsumerKey,
			ConsumerSecret: cfg.CHPPConsumerSecret,
			AccessToken:    cfg.CHPPAccessToken,
			AccessSecret:   cfg.CHPPAccessTokenSecret,
		},
		TeamID:     cfg.CHPPTeamID,
		Timeout:    cfg.CHPPTimeout,
		MaxRetries: cfg.CHPPMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CHPPCircuitEnabled,
			FailureThreshold: cfg.CHPPCircuitFailureCount,
			OpenTimeout:      cfg.CHPPCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CHPPCircuitHalfOpenMaxReq,
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build chpp client: %w", err)
	}

	syncSvc := usecase.NewSyncService(feed, playerRepo, matchRepo, runRepo, cfg.CHPPTeamID, logger)
	weeklySvc := usecase.NewWeeklyDiffService(playerRepo, cfg.WeeklyDiffMaxWorkers, logger)
	rosterSvc := usecase.NewRosterService(playerRepo, weeklySvc, cfg.CHPPTeamID, logger)
	matchSvc := usecase.NewMatchService(matchRepo, cfg.CHPPTeamID, logger)

	handler := httpapi.NewHandler(syncSvc, rosterSvc, matchSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}
