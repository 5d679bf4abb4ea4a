package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type workoutsStorage struct {
	pool *pgxpool.Pool
}

const workoutColumns = `id, user_id, to_char(date, 'YYYY-MM-DD'), type, duration_min, calories_kcal, distance_km, note, created_at, updated_at`

func scanWorkout(row pgx.Row) (*storage.Workout, error) {
	var w storage.Workout
	if err := row.Scan(&w.ID, &w.UserID, &w.Date, &w.Type, &w.DurationMin,
		&w.CaloriesKcal, &w.DistanceKm, &w.Note, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *workoutsStorage) CreateWorkout(ctx context.Context, w *storage.Workout) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	query := `
		INSERT INTO workouts (id, user_id, date, type, duration_min, calories_kcal, distance_km, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		w.ID, w.UserID, w.Date, w.Type, w.DurationMin, w.CaloriesKcal, w.DistanceKm, w.Note,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

func (s *workoutsStorage) GetWorkout(ctx context.Context, userID, id uuid.UUID) (*storage.Workout, error) {
	w, err := scanWorkout(s.pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return w, nil
}

func (s *workoutsStorage) UpdateWorkout(ctx context.Context, w *storage.Workout) error {
	query := `
		UPDATE workouts
		SET date = $3, type = $4, duration_min = $5, calories_kcal = $6, distance_km = $7, note = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		w.ID, w.UserID, w.Date, w.Type, w.DurationMin, w.CaloriesKcal, w.DistanceKm, w.Note,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return notFoundOr(err)
	}
	return nil
}

func (s *workoutsStorage) DeleteWorkout(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *workoutsStorage) ListWorkouts(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.Workout, error) {
	query := `
		SELECT ` + workoutColumns + `
		FROM workouts
		WHERE user_id = $1
		  AND ($2::date IS NULL OR date >= $2::date)
		  AND ($3::date IS NULL OR date <= $3::date)
		ORDER BY date DESC, created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	workouts := []storage.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

func (s *workoutsStorage) Leaderboard(ctx context.Context, from, to string, limit int) ([]storage.LeaderboardRow, error) {
	query := `
		SELECT w.user_id, u.name, COUNT(*), COALESCE(SUM(w.duration_min), 0), COALESCE(SUM(w.calories_kcal), 0)
		FROM workouts w
		JOIN users u ON u.id = w.user_id
		WHERE ($1::date IS NULL OR w.date >= $1::date)
		  AND ($2::date IS NULL OR w.date <= $2::date)
		GROUP BY w.user_id, u.name
		ORDER BY 5 DESC, 4 DESC, w.user_id::text ASC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	defer rows.Close()

	result := []storage.LeaderboardRow{}
	for rows.Next() {
		var r storage.LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Name, &r.Workouts, &r.TotalMinutes, &r.TotalCalories); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *workoutsStorage) CountWorkouts(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM workouts`).Scan(&n)
	return n, err
}
