package comments

import (
	"context"
	"sort"
	"sync"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

// InMemoryStore keeps comments in a map keyed by comment id.
type InMemoryStore struct {
	mu       sync.RWMutex
	comments map[id.CommentID]models.Comment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{comments: make(map[id.CommentID]models.Comment)}
}

func (s *InMemoryStore) Insert(_ context.Context, comment models.Comment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.comments[comment.ID]; exists {
		return false, nil
	}
	s.comments[comment.ID] = comment
	return true, nil
}

func (s *InMemoryStore) UpdateText(_ context.Context, commentID id.CommentID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[commentID]
	if !ok {
		return ErrNotFound
	}
	comment.Text = text
	comment.Edited = true
	s.comments[commentID] = comment
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, commentID id.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, commentID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, commentID id.CommentID) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if comment, ok := s.comments[commentID]; ok {
		return comment, nil
	}
	return models.Comment{}, ErrNotFound
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID id.RequestID) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, comment := range s.comments {
		if comment.RequestID == requestID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
