// Package main is the entry point for the tripcart API server.
// Its sole responsibility is wiring dependencies together and starting the
// server and the generation worker. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/voyagerhq/tripcart/internal/config"
	"github.com/voyagerhq/tripcart/internal/handler"
	"github.com/voyagerhq/tripcart/internal/itinerary"
	"github.com/voyagerhq/tripcart/internal/jobs"
	"github.com/voyagerhq/tripcart/internal/middleware"
	"github.com/voyagerhq/tripcart/internal/repo"
	"github.com/voyagerhq/tripcart/internal/service"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// line item with a details blob, well under this.
const maxBodyBytes int64 = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Job queue --------------------------------------------------------
	// Redis when configured (shared across instances); in-process channel
	// queue otherwise. Either way the job carries only the trip id.
	var queue jobs.Queue
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		queue = jobs.NewRedisQueue(client)
		slog.Info("redis job queue ready", "addr", cfg.RedisAddr)
	} else {
		queue = jobs.NewMemoryQueue(256)
		slog.Info("in-process job queue ready")
	}

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	cartRepo := repo.NewCartRepo(pool)
	tripSvc := service.NewTripService(tripRepo, queue, logger)
	cartSvc := service.NewCartService(tripRepo, cartRepo)

	// --- Itinerary worker -------------------------------------------------
	var gen itinerary.Generator = itinerary.TemplateGenerator{}
	if cfg.OpenAIAPIKey != "" {
		gen = itinerary.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		slog.Info("itinerary generation via OpenAI", "model", cfg.OpenAIModel)
	} else {
		slog.Info("itinerary generation via templates (no OPENAI_API_KEY)")
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	worker := itinerary.NewWorker(queue, tripRepo, gen, logger)
	go worker.Run(workerCtx)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body-size limit. Caller identity is scoped to /api inside
	// handler.Routes so /healthz stays unauthenticated.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	srvHandlers := handler.NewServer(tripSvc, cartSvc, logger)
	r.Mount("/", srvHandlers.Routes(middleware.NewIdentityHandler()))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing. The worker
	// is stopped after the server so a just-accepted create still gets
	// its job picked up.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	stopWorker()
	slog.Info("server stopped")
}
