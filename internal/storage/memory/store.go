package memory

import (
	"sync"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/domain"
)

// Store is an in-memory, append-only review log safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	reviews []domain.Review
}

func New(seed []domain.Review) *Store {
	s := &Store{reviews: make([]domain.Review, len(seed))}
	copy(s.reviews, seed)
	observability.SetStoreSize(len(s.reviews))
	return s
}

func (s *Store) Append(r domain.Review) {
	s.mu.Lock()
	s.reviews = append(s.reviews, r)
	n := len(s.reviews)
	s.mu.Unlock()
	observability.SetStoreSize(n)
}

// All copies the log so readers never alias the backing array.
func (s *Store) All() []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}
