package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type communityStorage struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]storage.Post
	likes map[uuid.UUID]map[uuid.UUID]struct{} // post -> users
	seq   map[uuid.UUID]int64
	next  int64
}

func newCommunityStorage() *communityStorage {
	return &communityStorage{
		posts: make(map[uuid.UUID]storage.Post),
		likes: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		seq:   make(map[uuid.UUID]int64),
	}
}

func (s *communityStorage) CreatePost(ctx context.Context, p *storage.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.LikeCount = 0
	s.posts[p.ID] = *p
	s.next++
	s.seq[p.ID] = s.next
	return nil
}

func (s *communityStorage) GetPost(ctx context.Context, id uuid.UUID) (*storage.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *communityStorage) ListPosts(ctx context.Context, limit, offset int) ([]storage.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]storage.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return s.seq[all[i].ID] > s.seq[all[j].ID]
	})
	return paginate(all, limit, offset), nil
}

func (s *communityStorage) DeletePost(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	delete(s.likes, id)
	delete(s.seq, id)
	return nil
}

func (s *communityStorage) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return false, storage.ErrNotFound
	}
	likers := s.likes[postID]
	if likers == nil {
		likers = make(map[uuid.UUID]struct{})
		s.likes[postID] = likers
	}
	if _, liked := likers[userID]; liked {
		return false, nil
	}
	likers[userID] = struct{}{}
	p.LikeCount = len(likers)
	s.posts[postID] = p
	return true, nil
}

func (s *communityStorage) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return false, storage.ErrNotFound
	}
	likers := s.likes[postID]
	if _, liked := likers[userID]; !liked {
		return false, nil
	}
	delete(likers, userID)
	p.LikeCount = len(likers)
	s.posts[postID] = p
	return true, nil
}

func (s *communityStorage) CountPosts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts), nil
}
