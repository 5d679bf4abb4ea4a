package workouts

import (
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

var workoutTypes = map[string]bool{
	"run":      true,
	"ride":     true,
	"swim":     true,
	"strength": true,
	"yoga":     true,
	"hiit":     true,
	"walk":     true,
	"other":    true,
}

const (
	maxDurationMin     = 1440
	maxCaloriesKcal    = 10000
	maxNoteLength      = 500
	defaultLeaderboard = 10
	maxLeaderboard     = 100
)

// ============================================================================
// DTOs
// ============================================================================

// WorkoutDTO represents a logged workout for API responses.
type WorkoutDTO struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`
	Type         string    `json:"type"`
	DurationMin  int       `json:"duration_min"`
	CaloriesKcal int       `json:"calories_kcal"`
	DistanceKm   float64   `json:"distance_km"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Workouts      int       `json:"workouts"`
	TotalMinutes  int       `json:"total_minutes"`
	TotalCalories int       `json:"total_calories"`
}

// ============================================================================
// Requests
// ============================================================================

// CreateWorkoutRequest is used to log a workout.
type CreateWorkoutRequest struct {
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	DurationMin  int     `json:"duration_min"`
	CaloriesKcal int     `json:"calories_kcal"`
	DistanceKm   float64 `json:"distance_km"`
	Note         string  `json:"note"`
}

// UpdateWorkoutRequest patches a workout. Nil fields are left unchanged.
type UpdateWorkoutRequest struct {
	Date         *string  `json:"date"`
	Type         *string  `json:"type"`
	DurationMin  *int     `json:"duration_min"`
	CaloriesKcal *int     `json:"calories_kcal"`
	DistanceKm   *float64 `json:"distance_km"`
	Note         *string  `json:"note"`
}

// ============================================================================
// Responses
// ============================================================================

// ListResponse returns workouts newest first.
type ListResponse struct {
	Workouts []WorkoutDTO `json:"workouts"`
}

// StatsResponse aggregates workouts over a date range.
type StatsResponse struct {
	From            string         `json:"from,omitempty"`
	To              string         `json:"to,omitempty"`
	Count           int            `json:"count"`
	TotalMinutes    int            `json:"total_minutes"`
	TotalCalories   int            `json:"total_calories"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	ByType          map[string]int `json:"by_type"`
}

// LeaderboardResponse ranks users by burned calories.
type LeaderboardResponse struct {
	From    string             `json:"from,omitempty"`
	To      string             `json:"to,omitempty"`
	Entries []LeaderboardEntry `json:"entries"`
}

// ============================================================================
// Converters
// ============================================================================

func toWorkoutDTO(w storage.Workout) WorkoutDTO {
	return WorkoutDTO{
		ID:           w.ID,
		Date:         w.Date,
		Type:         w.Type,
		DurationMin:  w.DurationMin,
		CaloriesKcal: w.CaloriesKcal,
		DistanceKm:   w.DistanceKm,
		Note:         w.Note,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}
