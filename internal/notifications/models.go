package notifications

import (
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

const (
	KindGoalsUpdated   = "goals_updated"
	KindMaintenanceDue = "maintenance_due"
	KindPostLiked      = "post_liked"
	KindRoleChanged    = "role_changed"
)

type NotificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

type ListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

func toDTO(n storage.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}
