package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type profilesStorage struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]storage.BodyProfile
}

func newProfilesStorage() *profilesStorage {
	return &profilesStorage{profiles: make(map[uuid.UUID]storage.BodyProfile)}
}

func (s *profilesStorage) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.BodyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *profilesStorage) UpsertProfile(ctx context.Context, profile storage.BodyProfile) (*storage.BodyProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	s.profiles[profile.UserID] = profile

	return &profile, nil
}

type nutritionGoalsStorage struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]storage.NutritionGoal
}

func newNutritionGoalsStorage() *nutritionGoalsStorage {
	return &nutritionGoalsStorage{goals: make(map[uuid.UUID]storage.NutritionGoal)}
}

func (s *nutritionGoalsStorage) GetGoals(ctx context.Context, userID uuid.UUID) (*storage.NutritionGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[userID]
	if !ok {
		return nil, nil // not found, return nil without error
	}
	return &g, nil
}

func (s *nutritionGoalsStorage) UpsertGoals(ctx context.Context, goal storage.NutritionGoal) (*storage.NutritionGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.goals[goal.UserID]; ok {
		goal.CreatedAt = existing.CreatedAt
	} else {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now
	s.goals[goal.UserID] = goal

	return &goal, nil
}

type nutritionLogsStorage struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]storage.NutritionLog
}

func newNutritionLogsStorage() *nutritionLogsStorage {
	return &nutritionLogsStorage{logs: make(map[uuid.UUID]storage.NutritionLog)}
}

func (s *nutritionLogsStorage) CreateLog(ctx context.Context, log *storage.NutritionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now().UTC()
	s.logs[log.ID] = *log
	return nil
}

func (s *nutritionLogsStorage) ListLogs(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.NutritionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.NutritionLog{}
	for _, l := range s.logs {
		if l.UserID == userID && inRange(l.Date, from, to) {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *nutritionLogsStorage) DeleteLog(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok || l.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.logs, id)
	return nil
}
