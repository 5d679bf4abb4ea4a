package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type notificationsStorage struct {
	mu    sync.RWMutex
	items []storage.Notification // append-only, oldest first
}

func newNotificationsStorage() *notificationsStorage {
	return &notificationsStorage{}
}

func (s *notificationsStorage) CreateNotification(ctx context.Context, n *storage.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *notificationsStorage) ListNotifications(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]storage.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.Notification{}
	for i := len(s.items) - 1; i >= 0; i-- {
		n := s.items[i]
		if n.UserID != userID {
			continue
		}
		if onlyUnread && n.ReadAt != nil {
			continue
		}
		result = append(result, n)
	}
	return paginate(result, limit, offset), nil
}

func (s *notificationsStorage) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *notificationsStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	updated := 0
	for i := range s.items {
		if s.items[i].UserID == userID && s.items[i].ReadAt == nil {
			s.items[i].ReadAt = &now
			updated++
		}
	}
	return updated, nil
}
