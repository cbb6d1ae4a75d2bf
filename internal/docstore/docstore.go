// Package docstore holds the raw bytes of submitted documents. Requests keep
// only document ids; the content lives here.
package docstore

import (
	"context"
	"sync"

	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// ErrNotFound is returned when a document id has no stored content.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "document not found")

// Store is a byte-oriented document store.
type Store interface {
	Put(ctx context.Context, docID id.DocumentID, content []byte) error
	Get(ctx context.Context, docID id.DocumentID) ([]byte, error)
	Delete(ctx context.Context, docID id.DocumentID) error
}

// InMemoryStore keeps documents in a map. Content is copied on the way in and
// out so callers cannot alias the stored slice.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, docID id.DocumentID, content []byte) error {
	if docID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "document id is required")
	}
	cp := make([]byte, len(content))
	copy(cp, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docID] = cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, docID id.DocumentID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.docs[docID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return cp, nil
}

func (s *InMemoryStore) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docID)
	return nil
}
