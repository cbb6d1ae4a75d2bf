package store

import (
	"context"
	"sort"
	"sync"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

// InMemoryStore keeps requests in a map. It favors clarity over performance
// and is the default when no database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]models.VerificationRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RequestID]models.VerificationRequest)}
}

func (s *InMemoryStore) Save(_ context.Context, req models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if req, ok := s.requests[requestID]; ok {
		return req.Clone(), nil
	}
	return models.VerificationRequest{}, ErrNotFound
}

func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.VerificationRequest
	for _, req := range s.requests {
		if req.CustomerID == customerID {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountAssignedToOfficer(_ context.Context, officerID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, req := range s.requests {
		if req.OfficerID != nil && *req.OfficerID == officerID && req.Status == models.StatusAssigned {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, requestID id.RequestID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	s.requests[requestID] = req
	return nil
}
