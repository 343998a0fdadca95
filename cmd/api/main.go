package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/staffdesk/backend/internal/config"
	"github.com/staffdesk/backend/internal/events"
	"github.com/staffdesk/backend/internal/handlers"
	"github.com/staffdesk/backend/internal/metrics"
	"github.com/staffdesk/backend/internal/repository"
	"github.com/staffdesk/backend/internal/router"
	"github.com/staffdesk/backend/internal/services"
	"github.com/staffdesk/backend/internal/tracker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		slog.Error("Profile store schema setup failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Collaborators
	trackerClient := tracker.NewClient(cfg.Tracker)
	profileRepo := repository.NewProfileRepo(pool)
	areaRepo := repository.NewAreaRepo(pool)

	// Engine services
	rosterBuilder := services.NewRosterBuilder(trackerClient, profileRepo, trackerClient, logger)
	selector := services.NewSelector(rosterBuilder, trackerClient, trackerClient, trackerClient, cfg.Fields.Area, logger)
	costSvc := services.NewCostService(trackerClient, profileRepo, trackerClient, cfg.Fields.Cost, logger)
	profileSvc := services.NewProfileService(profileRepo, logger)
	areaSvc := services.NewAreaService(areaRepo, trackerClient, cfg.Fields.Area, cfg.Project.Key, logger)

	// Event workers. The assignment queue runs a single worker so concurrent
	// item-created events cannot assign off the same stale capacity snapshot.
	workers := river.NewWorkers()
	river.AddWorker(workers, events.NewItemCreatedWorker(selector, logger))
	river.AddWorker(workers, events.NewWorklogUpdatedWorker(costSvc, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			events.AssignQueue: {MaxWorkers: 1},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertJob := func(ctx context.Context, args river.JobArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}
	webhookHandler := events.NewWebhookHandler(insertJob, logger)

	// HTTP surface
	agentHandler := &handlers.AgentHandler{
		Roster:     rosterBuilder,
		Items:      trackerClient,
		Profiles:   profileSvc,
		ProjectKey: cfg.Project.Key,
		Logger:     logger,
	}
	areaHandler := &handlers.AreaHandler{Areas: areaSvc, Logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/api/", router.New(agentHandler, areaHandler, webhookHandler))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	slog.Info("Starting HTTP server", "addr", cfg.Server.Addr, "project", cfg.Project.Key)
	if err := http.ListenAndServe(cfg.Server.Addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
