package history

import (
	"context"
	"sort"
	"sync"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

// InMemoryStore keeps history entries in maps keyed by entry id.
type InMemoryStore struct {
	mu        sync.RWMutex
	entries   map[id.HistoryID]models.StatusHistoryEntry
	byRequest map[id.RequestID][]id.HistoryID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries:   make(map[id.HistoryID]models.StatusHistoryEntry),
		byRequest: make(map[id.RequestID][]id.HistoryID),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, entry models.StatusHistoryEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		s.entries[entry.ID] = entry
		return false, nil
	}
	s.entries[entry.ID] = entry
	s.byRequest[entry.RequestID] = append(s.byRequest[entry.RequestID], entry.ID)
	return true, nil
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID id.RequestID) ([]models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRequest[requestID]
	out := make([]models.StatusHistoryEntry, 0, len(ids))
	for _, entryID := range ids {
		out = append(out, s.entries[entryID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	return out, nil
}

func (s *InMemoryStore) Latest(ctx context.Context, requestID id.RequestID) (models.StatusHistoryEntry, error) {
	entries, err := s.ListByRequest(ctx, requestID)
	if err != nil {
		return models.StatusHistoryEntry{}, err
	}
	if len(entries) == 0 {
		return models.StatusHistoryEntry{}, ErrNotFound
	}
	return entries[len(entries)-1], nil
}
