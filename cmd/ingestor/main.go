// Command ingestor seeds the MySQL reviews table from the CSV dataset so the
// API can start with REVIEWS_SOURCE=mysql.
package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/dataset"
	"review_analyzer/internal/domain"
	"review_analyzer/internal/shared"
	mysqlrepo "review_analyzer/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	log.Info().
		Str("csv", cfg.ReviewsCSV).
		Int("workers", cfg.IngestWorkers).
		Int("batch", cfg.IngestBatch).
		Msg("ingestor starting")

	reviews, err := dataset.NewCSVSource(cfg.ReviewsCSV).LoadReviews(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read dataset failed")
	}
	catalog := domain.NewLocationCatalog(domain.DefaultLocations...)
	for _, r := range reviews {
		if !catalog.Contains(r.Location) {
			log.Warn().Str("review_id", r.ID).Str("location", r.Location).Msg("location not in catalog")
		}
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	// Each row carries its CSV position as seq, so batches can land in any order.
	if cfg.IngestBatch <= 0 {
		cfg.IngestBatch = 200
	}
	sem := semaphore.NewWeighted(int64(max(cfg.IngestWorkers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	for start := 0; start < len(reviews); start += cfg.IngestBatch {
		end := min(start+cfg.IngestBatch, len(reviews))
		batch := reviews[start:end]

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(first int, batch []domain.Review) {
			defer wg.Done()
			defer sem.Release(1)

			if err := repo.UpsertReviews(ctx, first, batch); err != nil {
				failed.Add(1)
				log.Warn().Int("first_row", first).Int("rows", len(batch)).Err(err).Msg("batch failed")
				return
			}
			log.Info().Int("first_row", first).Int("rows", len(batch)).Msg("batch ok")
		}(start, batch)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed_batches", n).Msg("ingestion completed with errors")
	}
	log.Info().Int("reviews", len(reviews)).Msg("ingestion completed")
}
