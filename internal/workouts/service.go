package workouts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrWorkoutNotFound = errors.New("workout not found")
)

// Service provides workout logging, stats and the leaderboard.
type Service struct {
	storage storage.WorkoutsStorage
}

// NewService creates a new workouts service.
func NewService(st storage.WorkoutsStorage) *Service {
	return &Service{storage: st}
}

// Create logs a workout for the current user.
func (s *Service) Create(ctx context.Context, req CreateWorkoutRequest) (*WorkoutDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	w := storage.Workout{
		UserID:       userID,
		Date:         strings.TrimSpace(req.Date),
		Type:         strings.TrimSpace(req.Type),
		DurationMin:  req.DurationMin,
		CaloriesKcal: req.CaloriesKcal,
		DistanceKm:   req.DistanceKm,
		Note:         strings.TrimSpace(req.Note),
	}
	if err := validateWorkout(w); err != nil {
		return nil, err
	}

	if err := s.storage.CreateWorkout(ctx, &w); err != nil {
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}
	dto := toWorkoutDTO(w)
	return &dto, nil
}

// Get returns a single workout owned by the current user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*WorkoutDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	w, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	dto := toWorkoutDTO(*w)
	return &dto, nil
}

// Update applies a partial update to a workout.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateWorkoutRequest) (*WorkoutDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	w, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		w.Date = strings.TrimSpace(*req.Date)
	}
	if req.Type != nil {
		w.Type = strings.TrimSpace(*req.Type)
	}
	if req.DurationMin != nil {
		w.DurationMin = *req.DurationMin
	}
	if req.CaloriesKcal != nil {
		w.CaloriesKcal = *req.CaloriesKcal
	}
	if req.DistanceKm != nil {
		w.DistanceKm = *req.DistanceKm
	}
	if req.Note != nil {
		w.Note = strings.TrimSpace(*req.Note)
	}
	if err := validateWorkout(*w); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateWorkout(ctx, w); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to update workout: %w", err)
	}
	dto := toWorkoutDTO(*w)
	return &dto, nil
}

// Delete removes a workout owned by the current user.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteWorkout(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

// List returns the current user's workouts within [from, to].
func (s *Service) List(ctx context.Context, from, to string) ([]WorkoutDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	items, err := s.storage.ListWorkouts(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	result := make([]WorkoutDTO, 0, len(items))
	for _, w := range items {
		result = append(result, toWorkoutDTO(w))
	}
	return result, nil
}

// Stats aggregates the current user's workouts within [from, to].
func (s *Service) Stats(ctx context.Context, from, to string) (*StatsResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	items, err := s.storage.ListWorkouts(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	resp := &StatsResponse{From: from, To: to, ByType: map[string]int{}}
	for _, w := range items {
		resp.Count++
		resp.TotalMinutes += w.DurationMin
		resp.TotalCalories += w.CaloriesKcal
		resp.TotalDistanceKm += w.DistanceKm
		resp.ByType[w.Type]++
	}
	resp.TotalDistanceKm = math.Round(resp.TotalDistanceKm*100) / 100
	return resp, nil
}

// Leaderboard ranks all users by total calories, ties broken by minutes.
func (s *Service) Leaderboard(ctx context.Context, from, to string, limit int) (*LeaderboardResponse, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	if limit > maxLeaderboard {
		limit = maxLeaderboard
	}

	rows, err := s.storage.Leaderboard(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        row.UserID,
			Name:          row.Name,
			Workouts:      row.Workouts,
			TotalMinutes:  row.TotalMinutes,
			TotalCalories: row.TotalCalories,
		})
	}
	return &LeaderboardResponse{From: from, To: to, Entries: entries}, nil
}

func (s *Service) get(ctx context.Context, userID, id uuid.UUID) (*storage.Workout, error) {
	w, err := s.storage.GetWorkout(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return w, nil
}

func validateWorkout(w storage.Workout) error {
	if !isDate(w.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if !workoutTypes[w.Type] {
		return fmt.Errorf("%w: unknown workout type %q", ErrInvalidRequest, w.Type)
	}
	if w.DurationMin < 1 || w.DurationMin > maxDurationMin {
		return fmt.Errorf("%w: duration_min must be between 1 and %d", ErrInvalidRequest, maxDurationMin)
	}
	if w.CaloriesKcal < 0 || w.CaloriesKcal > maxCaloriesKcal {
		return fmt.Errorf("%w: calories_kcal must be between 0 and %d", ErrInvalidRequest, maxCaloriesKcal)
	}
	if math.IsNaN(w.DistanceKm) || math.IsInf(w.DistanceKm, 0) || w.DistanceKm < 0 {
		return fmt.Errorf("%w: distance_km must be >= 0", ErrInvalidRequest)
	}
	if len(w.Note) > maxNoteLength {
		return fmt.Errorf("%w: note is too long", ErrInvalidRequest)
	}
	return nil
}

func validateRange(from, to string) error {
	if from != "" && !isDate(from) {
		return fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if to != "" && !isDate(to) {
		return fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	return nil
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func currentUser(ctx context.Context) (uuid.UUID, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
