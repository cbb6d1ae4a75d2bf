package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

// InMemoryStore keeps notifications in a map keyed by notification id.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]models.Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[id.NotificationID]models.Notification)}
}

func (s *InMemoryStore) Insert(_ context.Context, notification models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[notification.ID]; exists {
		return false, nil
	}
	s.notifications[notification.ID] = notification
	return true, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, notificationID id.NotificationID) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.notifications[notificationID]; ok {
		return n, nil
	}
	return models.Notification{}, ErrNotFound
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipientID id.UserID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, notificationID id.NotificationID, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	n.ReadAt = &readAt
	s.notifications[notificationID] = n
	return nil
}
