// jobsearch-service
//
// Aggregates job listings from Remotive, Adzuna and JSearch into one
// de-duplicated, region-filtered, paginated feed. Exposes:
//   - one-shot searches and per-client search sessions
//   - saved searches re-run by cron (PostgreSQL, optional)
//   - post drafts (Redis, in-memory fallback) and the ATS keyword checker
//
// Publishes search.completed to Redis after each scheduled run.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/aggregator"
	"careercraft/jobsearch-service/internal/config"
	"careercraft/jobsearch-service/internal/db"
	"careercraft/jobsearch-service/internal/drafts"
	"careercraft/jobsearch-service/internal/httpapi"
	"careercraft/jobsearch-service/internal/logger"
	"careercraft/jobsearch-service/internal/metrics"
	"careercraft/jobsearch-service/internal/provider"
	"careercraft/jobsearch-service/internal/savedsearch"
	"careercraft/jobsearch-service/internal/scheduler"
	"careercraft/jobsearch-service/internal/session"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[jobsearch-service] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		ServiceName: "jobsearch-service",
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// ── Search pipeline ──────────────────────────────────────────────────────
	fetcher := provider.NewFetcher(log, m, provider.FetcherConfig{
		Timeout:    cfg.SourceTimeout,
		MaxRetries: cfg.FetchMaxRetries,
	})
	adapters := provider.All(fetcher, provider.Settings{
		RemotiveEnabled: cfg.RemotiveEnabled,
		AdzunaAppID:     cfg.AdzunaAppID,
		AdzunaAppKey:    cfg.AdzunaAppKey,
		AdzunaCountry:   cfg.AdzunaCountry,
		RapidAPIKey:     cfg.RapidAPIKey,
	})
	for _, a := range adapters {
		log.Info("provider", zap.String("source", string(a.Source())), zap.Bool("configured", a.Configured()))
	}
	agg := aggregator.New(adapters, aggregator.Options{
		SourceTimeout: cfg.SourceTimeout,
		Region:        cfg.Region,
		Location:      cfg.SearchLocation,
		PageSize:      cfg.PageSize,
	}, log, m)

	sessions := session.NewManager(agg, cfg.SessionTTL, log, m)
	go sessions.Run(ctx)

	// ── Redis (optional) ─────────────────────────────────────────────────────
	var (
		kv        drafts.KV = drafts.NewMemoryKV()
		publisher savedsearch.Publisher
	)
	if cfg.RedisURL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		log.Info("redis connected")
		kv = drafts.NewRedisKV(rdb)
		publisher = db.NewRedisPublisher(rdb)
	} else {
		log.Info("REDIS_URL not set, drafts kept in memory")
	}

	draftStore, err := drafts.Load(ctx, kv)
	if err != nil {
		return err
	}

	// ── PostgreSQL (optional) ────────────────────────────────────────────────
	var searches savedsearch.Repository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		log.Info("postgres connected")

		store := savedsearch.NewPostgresStore(pool)
		searches = store

		sched := scheduler.New(savedsearch.NewRunner(store, agg, publisher, log), cfg.ScheduleIntervalHours, log)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		defer sched.Stop()
	} else {
		log.Info("DATABASE_URL not set, saved searches disabled")
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	h := httpapi.NewHandler(httpapi.Deps{
		Searcher: agg,
		Sessions: sessions,
		Searches: searches,
		Drafts:   draftStore,
		Log:      log,
		Version:  version,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	// A search waits for the slowest provider, so the write timeout leaves
	// room for SourceTimeout plus the retry backoff.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h.Wrap(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.SourceTimeout + 10*time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("version", version), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
	return nil
}
