package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/fithub/internal/mailer"
	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Kinds that are also delivered by email.
var emailedKinds = map[string]bool{
	KindMaintenanceDue: true,
}

type Service struct {
	storage storage.NotificationsStorage
	users   storage.UsersStorage
	hub     *Hub
	mailer  mailer.Sender
	metrics *metrics.Manager
}

func NewService(store storage.NotificationsStorage, users storage.UsersStorage, hub *Hub, sender mailer.Sender, m *metrics.Manager) *Service {
	return &Service{
		storage: store,
		users:   users,
		hub:     hub,
		mailer:  sender,
		metrics: m,
	}
}

// Notify persists a notification, pushes it to the user's open streams and,
// for emailed kinds, sends it by mail. Mail failures are logged only.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error {
	if userID == uuid.Nil || strings.TrimSpace(kind) == "" || strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: user, kind and title are required", ErrInvalidRequest)
	}

	n := &storage.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}
	if err := s.storage.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterNotifications.WithLabelValues(kind).Inc()
	}
	if s.hub != nil {
		s.hub.Publish(userID, toDTO(*n))
	}
	if emailedKinds[kind] {
		s.email(ctx, userID, title, body)
	}

	log.WithFields(log.Fields{"user_id": userID, "kind": kind}).Debug("notifications: created")
	return nil
}

func (s *Service) email(ctx context.Context, userID uuid.UUID, title, body string) {
	if s.mailer == nil || s.users == nil {
		return
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("notifications: recipient lookup failed")
		return
	}
	if err := s.mailer.Send(ctx, mailer.Message{To: user.Email, Subject: title, Body: body}); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("notifications: email failed")
	}
}

func (s *Service) List(ctx context.Context, onlyUnread bool, limit, offset int) ([]NotificationDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.storage.ListNotifications(ctx, userID, onlyUnread, limit, offset)
	if err != nil {
		return nil, err
	}
	result := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		result = append(result, toDTO(n))
	}
	return result, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	return s.storage.UnreadCount(ctx, userID)
}

func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	return s.storage.MarkAllRead(ctx, userID)
}

// Subscribe opens a live stream for the current user.
func (s *Service) Subscribe(ctx context.Context) (<-chan NotificationDTO, func(), error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(userID)
	return ch, cancel, nil
}

func currentUser(ctx context.Context) (uuid.UUID, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
