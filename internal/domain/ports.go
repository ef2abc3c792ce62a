package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidLocation   = errors.New("invalid location")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrMissingField      = errors.New("missing field")
	ErrMalformedBody     = errors.New("malformed body")
)

// ReviewStore is an append-only, insertion-ordered review log.
type ReviewStore interface {
	Append(r Review)
	// All returns a snapshot; callers may modify it freely.
	All() []Review
	Len() int
}

// ReviewSource loads the startup dataset.
type ReviewSource interface {
	LoadReviews(ctx context.Context) ([]Review, error)
}

type SentimentScorer interface {
	Score(ctx context.Context, text string) (Sentiment, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & commands
type ReviewFilter struct {
	Location  string
	StartDate string
	EndDate   string
}

type NewReview struct {
	Body     string
	Location string
}
