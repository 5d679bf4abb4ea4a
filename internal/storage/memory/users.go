package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type usersStorage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]storage.User
	byEmail map[string]uuid.UUID
}

func newUsersStorage() *usersStorage {
	return &usersStorage{
		users:   make(map[uuid.UUID]storage.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return storage.ErrConflict
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID] = *user
	s.byEmail[email] = user.ID
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *usersStorage) ListUsers(ctx context.Context, limit, offset int) ([]storage.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]storage.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	return paginate(all, limit, offset), len(all), nil
}

func (s *usersStorage) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return &u, nil
}

func (s *usersStorage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *usersStorage) name(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Name
}
