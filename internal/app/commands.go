package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/domain"
)

type SubmissionService struct {
	store   domain.ReviewStore
	catalog domain.LocationCatalog
	now     func() time.Time
}

// NewSubmissionService wires the write path. A nil clock means time.Now.
func NewSubmissionService(st domain.ReviewStore, cat domain.LocationCatalog, clock func() time.Time) *SubmissionService {
	if clock == nil {
		clock = time.Now
	}
	return &SubmissionService{store: st, catalog: cat, now: clock}
}

// Submit validates and appends a new review. The store is untouched on error.
func (s *SubmissionService) Submit(ctx context.Context, in domain.NewReview) (domain.Review, error) {
	if in.Body == "" || in.Location == "" {
		return domain.Review{}, fmt.Errorf("%w: ReviewBody and Location are required", domain.ErrMissingField)
	}
	if !s.catalog.Contains(in.Location) {
		return domain.Review{}, fmt.Errorf("%w: %q", domain.ErrInvalidLocation, in.Location)
	}

	r := domain.Review{
		ID:       uuid.NewString(),
		Body:     in.Body,
		Location: in.Location,
		Time:     domain.NewTimestamp(s.now()),
	}
	s.store.Append(r)
	observability.ObserveSubmitted()
	log.Ctx(ctx).Debug().Str("review_id", r.ID).Str("location", r.Location).Msg("review submitted")
	return r, nil
}
