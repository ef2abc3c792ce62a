package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	ReviewsSource string // csv|mysql
	ReviewsCSV    string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	ScoreWorkers  int
	SubmitRPS     float64
	SubmitBurst   int
	MaxBodyBytes  int64
	HTTPTimeout   time.Duration
	IngestWorkers int
	IngestBatch   int

	// Warnings collects fallbacks taken while loading; Load runs before the
	// logger exists, so callers log them once it is installed.
	Warnings []string
}

func Load() Config {
	var warns []string
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			warns = append(warns, fmt.Sprintf("ignoring non-integer %s=%q", k, v))
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			warns = append(warns, fmt.Sprintf("ignoring non-numeric %s=%q", k, v))
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      ":" + strconv.Itoa(atoi("PORT", 8000)),
		MetricsAddr:   env("METRICS_ADDR", ""),
		ReviewsSource: env("REVIEWS_SOURCE", "csv"),
		ReviewsCSV:    env("REVIEWS_CSV", "data/reviews.csv"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ScoreWorkers:  atoi("SCORE_WORKERS", 8),
		SubmitRPS:     atof("SUBMIT_RPS", 20),
		SubmitBurst:   atoi("SUBMIT_BURST", 40),
		MaxBodyBytes:  int64(atoi("MAX_BODY_BYTES", 1<<20)),
		HTTPTimeout:   time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		IngestWorkers: atoi("INGEST_WORKERS", 4),
		IngestBatch:   atoi("INGEST_BATCH", 200),
	}
	if c.ReviewsSource != "csv" && c.ReviewsSource != "mysql" {
		warns = append(warns, fmt.Sprintf("unknown REVIEWS_SOURCE=%q, falling back to csv", c.ReviewsSource))
		c.ReviewsSource = "csv"
	}
	if c.ScoreWorkers <= 0 {
		c.ScoreWorkers = 1
	}
	c.Warnings = warns
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
