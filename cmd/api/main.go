// Package main is the entry point for the fishing log API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
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
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/mhalme/fishlog/backend/internal/config"
	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/handler"
	"github.com/mhalme/fishlog/backend/internal/middleware"
	"github.com/mhalme/fishlog/backend/internal/repo"
	"github.com/mhalme/fishlog/backend/internal/service"
	"github.com/mhalme/fishlog/backend/internal/weather"
	"github.com/mhalme/fishlog/backend/migrations"
)

// maxBodyBytes caps request body size. 1 MiB is generous for JSON payloads.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
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

	// Verify the DB is reachable before accepting traffic. The container
	// orchestrator may start us before Postgres is ready, so retry with
	// fibonacci backoff for up to a minute.
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = retry.Do(pingCtx, retry.WithMaxDuration(time.Minute, retry.NewFibonacci(time.Second)), func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			slog.Warn("database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Repositories -----------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	catchRepo := repo.NewCatchRepo(pool)
	speciesRepo := repo.NewSpeciesRepo(pool)
	weatherRepo := repo.NewWeatherRepo(pool)
	exportRepo := repo.NewExportRepo(pool)

	equipmentRepos := make(map[domain.EquipmentKind]repo.EquipmentRepo, len(domain.Kinds))
	assignmentRepos := make(map[domain.EquipmentKind]repo.AssignmentRepo, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		equipmentRepos[kind] = repo.NewEquipmentRepo(pool, kind)
		assignmentRepos[kind] = repo.NewAssignmentRepo(pool, kind)
	}

	// --- Services ---------------------------------------------------------
	weatherClient := weather.NewClient(weather.Config{
		BaseURL: cfg.WeatherBaseURL,
		APIKey:  cfg.WeatherAPIKey,
		Timeout: cfg.WeatherTimeout,
	})
	weatherSvc := service.NewWeatherService(tripRepo, weatherRepo, weatherClient)
	lastUsedSvc := service.NewLastUsedService(
		tripRepo,
		assignmentRepos[domain.KindRod],
		assignmentRepos[domain.KindLure],
		assignmentRepos[domain.KindGroundbait],
	)

	equipmentSvcs := make(map[domain.EquipmentKind]handler.EquipmentServicer, len(domain.Kinds))
	assignmentSvcs := make(map[domain.EquipmentKind]handler.AssignmentServicer, len(domain.Kinds))
	copiers := make(map[domain.EquipmentKind]service.EquipmentCopier, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		equipmentSvcs[kind] = service.NewEquipmentService(equipmentRepos[kind])
		assignmentSvc := service.NewAssignmentService(tripRepo, equipmentRepos[kind], assignmentRepos[kind])
		assignmentSvcs[kind] = assignmentSvc
		copiers[kind] = assignmentSvc
	}

	tripSvc := service.NewTripService(tripRepo, lastUsedSvc, copiers, weatherSvc)
	catchSvc := service.NewCatchService(tripRepo, catchRepo, equipmentRepos[domain.KindLure], equipmentRepos[domain.KindGroundbait])
	speciesSvc := service.NewSpeciesService(speciesRepo)
	exportSvc := service.NewExportService(exportRepo)

	srv := handler.NewServer(tripSvc, catchSvc, lastUsedSvc, weatherSvc, speciesSvc, exportSvc, equipmentSvcs, assignmentSvcs)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	// Health check stays outside auth so load balancers can probe it.
	r.Get("/healthz", handler.HealthHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthHandler([]byte(cfg.AuthSecret)))
		srv.Routes(r)
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies any pending goose migrations from the embedded FS.
// goose drives a database/sql connection, separate from the pgx pool.
func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("applied migration", "migration", res.Source.Path)
	}
	return nil
}
