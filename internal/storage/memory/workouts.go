package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type workoutsStorage struct {
	mu       sync.RWMutex
	workouts map[uuid.UUID]storage.Workout
	users    *usersStorage
}

func newWorkoutsStorage(users *usersStorage) *workoutsStorage {
	return &workoutsStorage{
		workouts: make(map[uuid.UUID]storage.Workout),
		users:    users,
	}
}

func (s *workoutsStorage) CreateWorkout(ctx context.Context, w *storage.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	s.workouts[w.ID] = *w
	return nil
}

func (s *workoutsStorage) GetWorkout(ctx context.Context, userID, id uuid.UUID) (*storage.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &w, nil
}

func (s *workoutsStorage) UpdateWorkout(ctx context.Context, w *storage.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workouts[w.ID]
	if !ok || existing.UserID != w.UserID {
		return storage.ErrNotFound
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = time.Now().UTC()
	s.workouts[w.ID] = *w
	return nil
}

func (s *workoutsStorage) DeleteWorkout(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.workouts, id)
	return nil
}

func (s *workoutsStorage) ListWorkouts(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.Workout{}
	for _, w := range s.workouts {
		if w.UserID == userID && inRange(w.Date, from, to) {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *workoutsStorage) Leaderboard(ctx context.Context, from, to string, limit int) ([]storage.LeaderboardRow, error) {
	s.mu.RLock()
	byUser := make(map[uuid.UUID]*storage.LeaderboardRow)
	for _, w := range s.workouts {
		if !inRange(w.Date, from, to) {
			continue
		}
		row, ok := byUser[w.UserID]
		if !ok {
			row = &storage.LeaderboardRow{UserID: w.UserID}
			byUser[w.UserID] = row
		}
		row.Workouts++
		row.TotalMinutes += w.DurationMin
		row.TotalCalories += w.CaloriesKcal
	}
	s.mu.RUnlock()

	rows := make([]storage.LeaderboardRow, 0, len(byUser))
	for id, row := range byUser {
		row.Name = s.users.name(id)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalCalories != rows[j].TotalCalories {
			return rows[i].TotalCalories > rows[j].TotalCalories
		}
		if rows[i].TotalMinutes != rows[j].TotalMinutes {
			return rows[i].TotalMinutes > rows[j].TotalMinutes
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})

	return paginate(rows, limit, 0), nil
}

func (s *workoutsStorage) CountWorkouts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workouts), nil
}
