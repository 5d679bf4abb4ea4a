package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/fithub/internal/auth"
	"github.com/fdg312/fithub/internal/notifications"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUserNotFound   = errors.New("user not found")
)

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

// Service implements the admin endpoints. Every method re-checks the
// caller's stored role.
type Service struct {
	users    storage.UsersStorage
	workouts storage.WorkoutsStorage
	posts    storage.CommunityStorage
	notifier Notifier
}

func NewService(users storage.UsersStorage, workouts storage.WorkoutsStorage, posts storage.CommunityStorage, notifier Notifier) *Service {
	return &Service{
		users:    users,
		workouts: workouts,
		posts:    posts,
		notifier: notifier,
	}
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) (*ListUsersResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultUsersLimit
	}
	if limit > maxUsersLimit {
		limit = maxUsersLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := &ListUsersResponse{
		Users:  make([]auth.UserDTO, 0, len(users)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range users {
		resp.Users = append(resp.Users, auth.ToUserDTO(&users[i]))
	}
	return resp, nil
}

// UpdateRole sets a user's role and notifies them. Admins cannot change
// their own role so the last admin cannot lock themselves out.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*auth.UserDTO, error) {
	adminID, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: role must be user or admin", ErrInvalidRequest)
	}
	if id == adminID {
		return nil, fmt.Errorf("%w: cannot change your own role", ErrInvalidRequest)
	}

	current, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if current.Role == role {
		dto := auth.ToUserDTO(current)
		return &dto, nil
	}

	updated, err := s.users.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  id,
		"role":     role,
	}).Info("admin: role changed")

	if s.notifier != nil {
		body := fmt.Sprintf("Your role is now %q.", role)
		if err := s.notifier.Notify(ctx, id, notifications.KindRoleChanged, "Role updated", body); err != nil {
			log.WithError(err).WithField("user_id", id).Warn("admin: role change notification failed")
		}
	}

	dto := auth.ToUserDTO(updated)
	return &dto, nil
}

func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	workouts, err := s.workouts.CountWorkouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}
	posts, err := s.posts.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	return &StatsResponse{Users: users, Workouts: workouts, Posts: posts}, nil
}

// requireAdmin checks the stored role; the token claim may predate a demotion.
func (s *Service) requireAdmin(ctx context.Context) (uuid.UUID, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}

	caller, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if caller.Role != RoleAdmin {
		return uuid.Nil, ErrForbidden
	}
	return id, nil
}
