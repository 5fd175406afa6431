package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // stock recover middleware

	"github.com/iliyamo/sakila-admin/internal/cache"
	"github.com/iliyamo/sakila-admin/internal/config" // Internal config loader
	"github.com/iliyamo/sakila-admin/internal/dashboard"
	"github.com/iliyamo/sakila-admin/internal/database"
	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/handler"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/middleware"
	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/reporting"
	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/router" // Internal router setup
	"github.com/iliyamo/sakila-admin/internal/schema"
	"github.com/iliyamo/sakila-admin/internal/view"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load() // Load environment config
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	// Redis is optional: without it responses and existence answers are
	// memoized in-process and rate limiting is off.
	rdb := config.NewRedisClient()
	var store cache.Store = cache.NewMemory()
	if rdb != nil {
		store = cache.NewRedisStore(rdb)
		defer rdb.Close()
	}

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	evCfg := config.LoadEventsConfig()
	pageCfg := paging.Config{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

	introspector := schema.New(db, store, cfg.SchemaCacheTTL, cfg.QueryTimeout)
	reader := repository.NewTableReader(db, introspector, view.Default(), repository.ReaderOptions{
		QueryTimeout: cfg.QueryTimeout,
		Paging:       pageCfg,
		Breaker:      repository.DefaultBreakerSettings(),
	})
	stats := repository.NewStatsRepo(db, cfg.QueryTimeout)

	reportSchema, err := config.LoadReportSchema(cfg.ReportsPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.ReportsPath).Msg("load reporting schema")
	}
	analytics := reporting.NewAnalytics(stats, introspector, reportSchema)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Negotiation failure leaves analytics unavailable but the server up.
	negCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if caps, err := analytics.Negotiate(negCtx); err != nil {
		logging.Warn().Err(err).Msg("analytics negotiation failed")
	} else {
		logging.Info().Strs("metrics", caps.Keys).Int("unavailable", len(caps.Unavailable)).Msg("analytics negotiated")
	}
	cancel()

	var sinks []events.Sink
	if evCfg.Enabled {
		sink := events.NewAMQPSink(evCfg.AMQPURL, evCfg.QueueName)
		defer sink.Close()
		sinks = append(sinks, sink)
		go func() {
			if err := events.StartConsumer(ctx, evCfg.AMQPURL, evCfg.QueueName, evCfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("events consumer stopped")
			}
		}()
	}
	bus := events.NewBus(sinks...)

	conn := handler.CheckConnectivity(ctx, db, 3*time.Second)
	if !conn.OK {
		logging.Warn().Str("error", conn.Error).Msg("database not reachable at startup")
	}

	purge := func(ctx context.Context) error { return middleware.PurgeResponses(ctx, cacheCfg, store) }

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	users := repository.NewUserRepo(db)
	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		bctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		created, err := users.EnsureAdmin(bctx, cfg.BootstrapEmail, cfg.BootstrapPassword, cfg.BcryptCost)
		cancel()
		switch {
		case err != nil:
			logging.Fatal().Err(err).Msg("bootstrap admin")
		case created:
			logging.Info().Str("email", cfg.BootstrapEmail).Msg("bootstrap admin created")
		}
	}

	router.RegisterRoutes(e, db)
	authH := handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db))
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAdmin(e, router.Admin{
		JWTSecret:  cfg.JWTSecret,
		Auth:       authH,
		Views:      handler.NewViewsHandler(reader, bus, pageCfg),
		Schema:     handler.NewSchemaHandler(introspector, bus, purge),
		Stats:      handler.NewStatsHandler(dashboard.New(stats), analytics, bus, purge),
		Events:     handler.NewEventsHandler(bus, evCfg.AllowedOrigins...),
		Shell:      handler.NewShellHandler(reader.Catalog(), conn),
		Cache:      cacheCfg,
		CacheStore: store,
		RateLimit:  rlCfg,
		Redis:      rdb,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	bus.Flush()
}
