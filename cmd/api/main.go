package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "review_analyzer/internal/adapters/http_server"
	"review_analyzer/internal/adapters/observability"
	redisad "review_analyzer/internal/adapters/redis"
	"review_analyzer/internal/app"
	"review_analyzer/internal/dataset"
	"review_analyzer/internal/domain"
	"review_analyzer/internal/sentiment"
	"review_analyzer/internal/shared"
	"review_analyzer/internal/storage/memory"
	mysqlrepo "review_analyzer/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// dataset
	src, closeSrc := reviewSource(cfg)
	seed, err := src.LoadReviews(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.ReviewsSource).Msg("load reviews failed")
	}
	closeSrc()
	log.Info().Int("reviews", len(seed)).Str("source", cfg.ReviewsSource).Msg("dataset loaded")

	// deps
	store := memory.New(seed)
	catalog := domain.NewLocationCatalog(domain.DefaultLocations...)
	analyzer := sentiment.NewAnalyzer()
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, sentiment cache disabled")
		} else {
			cache = rc
			defer rc.Close()
			log.Info().Str("addr", cfg.RedisAddr).Msg("sentiment cache enabled")
		}
	}
	q := app.NewQueryService(store, catalog, analyzer, cache, cfg.CacheTTL, cfg.ScoreWorkers)
	s := app.NewSubmissionService(store, catalog, nil)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.MountHandlers(&server.Handlers{
		Q:             q,
		S:             s,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		SubmitLimiter: server.NewIPRateLimiter(cfg.SubmitRPS, cfg.SubmitBurst),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// reviewSource picks the startup dataset; the returned func releases it.
func reviewSource(cfg shared.Config) (domain.ReviewSource, func()) {
	if cfg.ReviewsSource != "mysql" {
		return dataset.NewCSVSource(cfg.ReviewsCSV), func() {}
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }
}
