package auditlog

import (
	"context"
	"sort"
	"sync"

	"veriflow/internal/verification/models"
)

// InMemoryStore keeps audit entries in memory, deduplicated by fingerprint.
type InMemoryStore struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	entries []models.AuditLogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]struct{})}
}

func (s *InMemoryStore) Append(_ context.Context, entry models.AuditLogEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[entry.Fingerprint]; dup {
		return false, nil
	}
	s.seen[entry.Fingerprint] = struct{}{}
	s.entries = append(s.entries, entry)
	return true, nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityType, entityID string) ([]models.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuditLogEntry
	for _, entry := range s.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
