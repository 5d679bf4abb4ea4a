package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

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
	ErrPostNotFound   = errors.New("post not found")
)

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

// Service implements the community feed.
type Service struct {
	posts    storage.CommunityStorage
	users    storage.UsersStorage
	workouts storage.WorkoutsStorage
	notifier Notifier
}

func NewService(posts storage.CommunityStorage, users storage.UsersStorage, workouts storage.WorkoutsStorage, notifier Notifier) *Service {
	return &Service{
		posts:    posts,
		users:    users,
		workouts: workouts,
		notifier: notifier,
	}
}

// CreatePost publishes a post. An attached workout must belong to the author.
func (s *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*PostDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" || utf8.RuneCountInString(body) > maxBodyLength {
		return nil, fmt.Errorf("%w: body must be 1-%d characters", ErrInvalidRequest, maxBodyLength)
	}
	if req.WorkoutID != nil {
		if _, err := s.workouts.GetWorkout(ctx, userID, *req.WorkoutID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: workout not found", ErrInvalidRequest)
			}
			return nil, err
		}
	}

	author, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	p := storage.Post{
		UserID:     userID,
		AuthorName: author.Name,
		Body:       body,
		WorkoutID:  req.WorkoutID,
	}
	if err := s.posts.CreatePost(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	dto := toPostDTO(p)
	return &dto, nil
}

// ListPosts returns the feed newest first.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) (*ListPostsResponse, error) {
	if _, err := currentUser(ctx); err != nil {
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

	posts, err := s.posts.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	result := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		result = append(result, toPostDTO(p))
	}
	return &ListPostsResponse{Posts: result, Limit: limit, Offset: offset}, nil
}

// DeletePost removes a post. Only its author or an admin may delete it.
func (s *Service) DeletePost(ctx context.Context, id uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	p, err := s.getPost(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return ErrForbidden
		}
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// isAdmin checks the stored role rather than the token claim, which
// survives a demotion until the token expires.
func (s *Service) isAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	return u.Role == userctx.RoleAdmin, nil
}

// Like is idempotent. The author is notified only when a new like from
// someone else is recorded.
func (s *Service) Like(ctx context.Context, id uuid.UUID) (*LikeResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	added, err := s.posts.LikePost(ctx, id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	p, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if added && p.UserID != userID {
		s.notifyLiked(ctx, userID, p)
	}
	return &LikeResponse{Liked: true, LikeCount: p.LikeCount}, nil
}

// Unlike is idempotent.
func (s *Service) Unlike(ctx context.Context, id uuid.UUID) (*LikeResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.posts.UnlikePost(ctx, id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	p, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LikeResponse{Liked: false, LikeCount: p.LikeCount}, nil
}

func (s *Service) notifyLiked(ctx context.Context, likerID uuid.UUID, p *storage.Post) {
	if s.notifier == nil {
		return
	}
	name := "Someone"
	if liker, err := s.users.GetUser(ctx, likerID); err == nil && liker.Name != "" {
		name = liker.Name
	}
	body := fmt.Sprintf("%s liked your post: %q", name, excerpt(p.Body, 60))
	if err := s.notifier.Notify(ctx, p.UserID, notifications.KindPostLiked, "New like", body); err != nil {
		log.WithError(err).WithField("post_id", p.ID).Warn("community: like notification failed")
	}
}

func (s *Service) getPost(ctx context.Context, id uuid.UUID) (*storage.Post, error) {
	p, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
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
