package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/foliotrack/portfolio-engine/internal/account"
	"github.com/foliotrack/portfolio-engine/internal/brokersync"
	"github.com/foliotrack/portfolio-engine/internal/config"
	"github.com/foliotrack/portfolio-engine/internal/metrics"
	"github.com/foliotrack/portfolio-engine/internal/portfolio"
	"github.com/foliotrack/portfolio-engine/internal/store"
	"github.com/foliotrack/portfolio-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("portfolio-engine failed")
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM. Every store client opened here is closed
// before it returns, on success and on failure.
func run(cfg *config.Config, log zerolog.Logger) error {
	// --- Initialize store ---
	kv, cleanup, err := openStore(cfg, log)
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()
	if err != nil {
		return fmt.Errorf("store initialisation: %w", err)
	}

	// --- Sector table ---
	var sectors portfolio.SectorTable
	if cfg.SectorsFile != "" {
		sectors, err = portfolio.LoadSectorTable(cfg.SectorsFile)
		if err != nil {
			return fmt.Errorf("sector table %s: %w", cfg.SectorsFile, err)
		}
		log.Info().Str("path", cfg.SectorsFile).Int("symbols", len(sectors)).Msg("sector table loaded")
	}

	// --- Broker sync source ---
	var dataset brokersync.Dataset
	if cfg.MockDataFile != "" {
		dataset, err = brokersync.LoadDataset(cfg.MockDataFile)
		if err != nil {
			return fmt.Errorf("broker dataset %s: %w", cfg.MockDataFile, err)
		}
		log.Info().Str("path", cfg.MockDataFile).Int("brokers", len(dataset)).Msg("broker dataset loaded")
	}
	fetcher := brokersync.NewMockFetcher(dataset,
		brokersync.WithDelay(cfg.SyncDelay),
		brokersync.WithRateLimit(cfg.SyncRate),
	)

	// --- WebSocket hub ---
	wsHub := account.NewWSHub(log)
	go wsHub.Run()

	// --- Account service ---
	accountSvc := account.NewService(kv, fetcher, portfolio.NewAllocator(sectors), wsHub, log)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"portfolio-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Lifecycle events for dashboards.
		r.Get("/ws", wsHub.HandleWS)

		// Broker connections.
		r.Post("/brokers/connect", accountSvc.HandleConnect)
		r.Post("/brokers/sync", accountSvc.HandleSync)
		r.Get("/brokers/{userID}", accountSvc.HandleListConnections)
		r.Delete("/brokers/{userID}/{broker}", accountSvc.HandleDisconnect)

		// Portfolio queries.
		r.Get("/portfolio/{userID}", accountSvc.HandlePortfolio)
		r.Get("/portfolio/{userID}/allocation", accountSvc.HandleAllocation)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.SyncDelay,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("portfolio-engine listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info().Msg("shutting down portfolio-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("portfolio-engine stopped")
	return nil
}

// openStore picks the key-value backend from the configuration. PostgreSQL
// wins when DATABASE_URL is set, with Redis as a read-through cache in front
// of it if REDIS_URL is also set. REDIS_URL alone selects Redis as the
// primary store. With neither, records live in memory.
func openStore(cfg *config.Config, log zerolog.Logger) (store.KV, []func(), error) {
	var cleanup []func()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("database connection failed: %w", err)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info().Msg("connected to PostgreSQL")

		if rdb != nil {
			log.Info().Dur("ttl", cfg.CacheTTL).Msg("Redis cache enabled")
			return store.NewCachedStore(pg, rdb, cfg.CacheTTL), cleanup, nil
		}
		return pg, cleanup, nil
	}

	if rdb != nil {
		log.Info().Msg("using Redis store")
		return store.NewRedisStore(rdb), cleanup, nil
	}

	log.Warn().Msg("DATABASE_URL and REDIS_URL not set, using in-memory store (data will not persist)")
	return store.NewMemoryStore(), cleanup, nil
}
