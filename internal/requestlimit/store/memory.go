package store

import (
	"context"
	"sync"

	"veriflow/internal/verification/models"
)

// InMemoryStore serializes all counter mutations behind one mutex.
type InMemoryStore struct {
	mu     sync.Mutex
	limits map[Key]*models.RequestLimit
	totals map[string]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		limits: make(map[Key]*models.RequestLimit),
		totals: make(map[string]int),
	}
}

func (s *InMemoryStore) Get(_ context.Context, key Key) (*models.RequestLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.limits[key]
	if !ok {
		return nil, nil
	}
	copied := *limit
	return &copied, nil
}

func (s *InMemoryStore) Reserve(_ context.Context, key Key, max int) (*models.RequestLimit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit, ok := s.limits[key]
	if !ok {
		// Created lazily on the first request of the year.
		limit = &models.RequestLimit{
			CustomerID:  key.CustomerID,
			RequestorID: key.RequestorID,
			Year:        key.Year,
			MaxAllowed:  max,
		}
		s.limits[key] = limit
	}

	if limit.RequestCount >= max {
		copied := *limit
		copied.TotalCustomerRequests = s.totals[key.CustomerTotalKey()]
		return &copied, false, nil
	}

	limit.RequestCount++
	s.totals[key.CustomerTotalKey()]++
	copied := *limit
	copied.TotalCustomerRequests = s.totals[key.CustomerTotalKey()]
	return &copied, true, nil
}
