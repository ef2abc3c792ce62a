package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"review_analyzer/internal/domain"
)

// maxTime mirrors the largest calendar instant a date bound can express.
var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)

type QueryService struct {
	store    domain.ReviewStore
	catalog  domain.LocationCatalog
	scorer   domain.SentimentScorer
	cache    domain.Cache
	cacheTTL time.Duration
	workers  int
}

// NewQueryService wires the read path. cache may be nil.
func NewQueryService(st domain.ReviewStore, cat domain.LocationCatalog, sc domain.SentimentScorer, c domain.Cache, ttl time.Duration, workers int) *QueryService {
	if workers <= 0 {
		workers = 1
	}
	return &QueryService{store: st, catalog: cat, scorer: sc, cache: c, cacheTTL: ttl, workers: workers}
}

// Query filters the store by location and date range, scores every surviving
// review and returns them ordered by compound sentiment, highest first.
// The end date is compared as midnight of that day, so later times on the
// end date are excluded.
func (s *QueryService) Query(ctx context.Context, f domain.ReviewFilter) ([]domain.AnnotatedReview, error) {
	if f.Location != "" && !s.catalog.Contains(f.Location) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLocation, f.Location)
	}
	start, end, err := parseRange(f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}

	var matched []domain.Review
	for _, r := range s.store.All() {
		if f.Location != "" && r.Location != f.Location {
			continue
		}
		if r.Time.Before(start) || r.Time.After(end) {
			continue
		}
		matched = append(matched, r)
	}

	out := make([]domain.AnnotatedReview, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, r := range matched {
		i, r := i, r
		g.Go(func() error {
			sent, err := s.score(gctx, r.Body)
			if err != nil {
				return fmt.Errorf("score review %s: %w", r.ID, err)
			}
			out[i] = domain.AnnotatedReview{Review: r, Sentiment: sent}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sentiment.Compound > out[j].Sentiment.Compound
	})
	return out, nil
}

func (s *QueryService) score(ctx context.Context, text string) (domain.Sentiment, error) {
	if s.cache == nil {
		return s.scorer.Score(ctx, text)
	}
	key := sentimentKey(text)
	var cached domain.Sentiment
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sentiment cache get failed")
	}
	if ok && err == nil {
		return cached, nil
	}

	sent, err := s.scorer.Score(ctx, text)
	if err != nil {
		return domain.Sentiment{}, err
	}
	if err := s.cache.Set(ctx, key, sent, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sentiment cache set failed")
	}
	return sent, nil
}

func sentimentKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return "sentiment:" + hex.EncodeToString(sum[:])
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, end := time.Time{}, maxTime
	if startStr != "" {
		t, err := time.Parse(domain.DateLayout, startStr)
		if err != nil {
			return start, end, fmt.Errorf("%w: start_date %q", domain.ErrInvalidDateFormat, startStr)
		}
		start = t
	}
	if endStr != "" {
		t, err := time.Parse(domain.DateLayout, endStr)
		if err != nil {
			return start, end, fmt.Errorf("%w: end_date %q", domain.ErrInvalidDateFormat, endStr)
		}
		end = t
	}
	return start, end, nil
}
