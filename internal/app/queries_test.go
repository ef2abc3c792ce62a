package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"review_analyzer/internal/app"
	"review_analyzer/internal/domain"
	"review_analyzer/internal/storage/memory"
)

// ---- fakes ----

// fakeScorer scores by a fixed table; unknown texts get 0.
type fakeScorer struct {
	scores map[string]float64
	calls  int32
	err    error
}

func (f *fakeScorer) Score(ctx context.Context, text string) (domain.Sentiment, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return domain.Sentiment{}, f.err
	}
	return domain.Sentiment{Neutral: 1, Compound: f.scores[text]}, nil
}

// fakeCache is shared by the scoring workers of a query, hence the lock.
type fakeCache struct {
	mu     sync.Mutex
	store  map[string]any
	setErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Sentiment) = v.(domain.Sentiment)
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// ---- helpers ----

var catalog = domain.NewLocationCatalog(domain.DefaultLocations...)

func review(id, body, loc, ts string) domain.Review {
	t, err := domain.ParseTimestamp(ts)
	if err != nil {
		panic(err)
	}
	return domain.Review{ID: id, Body: body, Location: loc, Time: t}
}

func seed() []domain.Review {
	return []domain.Review{
		review("1", "meh", "Denver, Colorado", "2023-01-01 00:00:00"),
		review("2", "great", "Denver, Colorado", "2023-01-15 12:30:00"),
		review("3", "awful", "Phoenix, Arizona", "2023-01-31 00:00:00"),
		review("4", "fine", "Phoenix, Arizona", "2023-01-31 09:15:00"),
		review("5", "also meh", "Tucson, Arizona", "2023-02-10 08:00:00"),
		review("6", "good", "Denver, Colorado", "2022-12-31 23:59:59"),
	}
}

var scores = map[string]float64{
	"meh": 0, "great": 0.9, "awful": -0.8, "fine": 0.3, "also meh": 0, "good": 0.5,
}

func newQuery(st domain.ReviewStore, sc domain.SentimentScorer, c domain.Cache) *app.QueryService {
	return app.NewQueryService(st, catalog, sc, c, time.Minute, 4)
}

func ids(rs []domain.AnnotatedReview) string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return strings.Join(out, ",")
}

// ---- tests ----

func TestQuery_NoFiltersSortedByCompound(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	// ties (1 and 5 both 0) keep store order
	if got := ids(out); got != "2,6,4,1,5,3" {
		t.Fatalf("unexpected order: %s", got)
	}
	for i := 0; i+1 < len(out); i++ {
		if out[i].Sentiment.Compound < out[i+1].Sentiment.Compound {
			t.Fatalf("not sorted at %d: %+v", i, out)
		}
	}
}

func TestQuery_LocationFilter(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Denver, Colorado"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := ids(out); got != "2,6,1" {
		t.Fatalf("unexpected ids: %s", got)
	}
	for _, r := range out {
		if r.Location != "Denver, Colorado" {
			t.Fatalf("leaked location %q", r.Location)
		}
	}
}

func TestQuery_ValidLocationWithoutReviews(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Fresno, California"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestQuery_InvalidLocation(t *testing.T) {
	sc := &fakeScorer{scores: scores}
	q := newQuery(memory.New(seed()), sc, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Nowhere, Nowhere", StartDate: "bad"})
	if !errors.Is(err, domain.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation before date validation, got %v", err)
	}
	if out != nil || sc.calls != 0 {
		t.Fatalf("expected no partial result, got %v (calls=%d)", out, sc.calls)
	}
}

func TestQuery_DateRangeInclusive(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{StartDate: "2023-01-01", EndDate: "2023-01-31"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	// 1 is exactly at start midnight, 3 exactly at end midnight.
	// 4 is later on the end date and is excluded: the end bound is midnight.
	if got := ids(out); got != "2,1,3" {
		t.Fatalf("unexpected ids: %s", got)
	}
}

func TestQuery_EndDateIsMidnight(t *testing.T) {
	st := memory.New([]domain.Review{
		review("a", "x", "Denver, Colorado", "2023-03-05 00:00:00"),
		review("b", "x", "Denver, Colorado", "2023-03-05 00:00:01"),
	})
	q := newQuery(st, &fakeScorer{}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{EndDate: "2023-03-05"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := ids(out); got != "a" {
		t.Fatalf("expected only the midnight review, got %s", got)
	}
}

func TestQuery_OpenEndedRanges(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	out, err := q.Query(context.Background(), domain.ReviewFilter{StartDate: "2023-01-31"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := ids(out); got != "4,5,3" {
		t.Fatalf("start only: %s", got)
	}

	out, err = q.Query(context.Background(), domain.ReviewFilter{EndDate: "2023-01-01"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := ids(out); got != "6,1" {
		t.Fatalf("end only: %s", got)
	}
}

func TestQuery_InvalidDateFormat(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{scores: scores}, nil)

	for _, f := range []domain.ReviewFilter{
		{StartDate: "2023/01/01"},
		{EndDate: "01-31-2023"},
		{StartDate: "2023-01-01 10:00:00"},
		{Location: "Denver, Colorado", EndDate: "2023-02-30"},
	} {
		if _, err := q.Query(context.Background(), f); !errors.Is(err, domain.ErrInvalidDateFormat) {
			t.Fatalf("filter %+v: expected ErrInvalidDateFormat, got %v", f, err)
		}
	}
}

func TestQuery_ScoresOnlyFilteredReviews(t *testing.T) {
	sc := &fakeScorer{scores: scores}
	q := newQuery(memory.New(seed()), sc, nil)

	if _, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Tucson, Arizona"}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if sc.calls != 1 {
		t.Fatalf("expected 1 scorer call, got %d", sc.calls)
	}
}

func TestQuery_ResultsDoNotAliasStore(t *testing.T) {
	st := memory.New(seed())
	q := newQuery(st, &fakeScorer{scores: scores}, nil)

	out, _ := q.Query(context.Background(), domain.ReviewFilter{})
	out[0].Body = "tampered"

	for _, r := range st.All() {
		if r.Body == "tampered" {
			t.Fatalf("query result aliased the store")
		}
	}
}

func TestQuery_ScorerErrorPropagates(t *testing.T) {
	q := newQuery(memory.New(seed()), &fakeScorer{err: errors.New("boom")}, nil)

	if _, err := q.Query(context.Background(), domain.ReviewFilter{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQuery_CacheMissThenHit(t *testing.T) {
	sc := &fakeScorer{scores: scores}
	cache := &fakeCache{}
	q := newQuery(memory.New(seed()), sc, cache)

	// Miss (first time, populates cache)
	if _, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Tucson, Arizona"}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if sc.calls != 1 || cache.len() != 1 {
		t.Fatalf("expected one scored and cached text, calls=%d cached=%d", sc.calls, cache.len())
	}

	// Hit (served from cache)
	out, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Tucson, Arizona"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if sc.calls != 1 {
		t.Fatalf("expected cached score, scorer called %d times", sc.calls)
	}
	if len(out) != 1 || out[0].Sentiment.Neutral != 1 {
		t.Fatalf("unexpected cached result: %+v", out)
	}
}

func TestQuery_ConcurrentCacheMisses(t *testing.T) {
	var rs []domain.Review
	sc := &fakeScorer{scores: map[string]float64{}}
	for i := 0; i < 32; i++ {
		body := fmt.Sprintf("review number %d", i)
		sc.scores[body] = float64(i) / 100
		rs = append(rs, review(fmt.Sprint(i), body, "Denver, Colorado", "2023-01-01 10:00:00"))
	}
	cache := &fakeCache{}
	q := newQuery(memory.New(rs), sc, cache)

	out, err := q.Query(context.Background(), domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 32 || atomic.LoadInt32(&sc.calls) != 32 || cache.len() != 32 {
		t.Fatalf("expected 32 results, scores and cache entries, got %d/%d/%d", len(out), sc.calls, cache.len())
	}
	if out[0].ID != "31" || out[31].ID != "0" {
		t.Fatalf("unexpected order: %s", ids(out))
	}

	if _, err := q.Query(context.Background(), domain.ReviewFilter{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := atomic.LoadInt32(&sc.calls); got != 32 {
		t.Fatalf("second query should be served from cache, scorer called %d times", got)
	}
}

func TestQuery_CacheSetFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	sc := &fakeScorer{scores: scores}
	q := newQuery(memory.New(seed()), sc, &fakeCache{setErr: errors.New("redis down")})

	out, err := q.Query(context.Background(), domain.ReviewFilter{Location: "Tucson, Arizona"})
	if err != nil {
		t.Fatalf("a failed cache write must not fail the query: %v", err)
	}
	if len(out) != 1 || sc.calls != 1 {
		t.Fatalf("unexpected result: %+v (calls=%d)", out, sc.calls)
	}
	logged := buf.String()
	if !strings.Contains(logged, `"level":"warn"`) || !strings.Contains(logged, "sentiment cache set failed") || !strings.Contains(logged, "redis down") {
		t.Fatalf("expected a warn log for the failed set, got %q", logged)
	}
}
