package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type profilesStorage struct {
	pool *pgxpool.Pool
}

func (s *profilesStorage) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.BodyProfile, error) {
	query := `
		SELECT user_id, age, weight_kg, height_cm, sex, activity_level, goal, diet_type, created_at, updated_at
		FROM body_profiles
		WHERE user_id = $1
	`

	var p storage.BodyProfile
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Age, &p.WeightKg, &p.HeightCm, &p.Sex,
		&p.ActivityLevel, &p.Goal, &p.DietType, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get body profile: %w", err)
	}
	return &p, nil
}

func (s *profilesStorage) UpsertProfile(ctx context.Context, profile storage.BodyProfile) (*storage.BodyProfile, error) {
	query := `
		INSERT INTO body_profiles (user_id, age, weight_kg, height_cm, sex, activity_level, goal, diet_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			age = EXCLUDED.age,
			weight_kg = EXCLUDED.weight_kg,
			height_cm = EXCLUDED.height_cm,
			sex = EXCLUDED.sex,
			activity_level = EXCLUDED.activity_level,
			goal = EXCLUDED.goal,
			diet_type = EXCLUDED.diet_type,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		profile.UserID, profile.Age, profile.WeightKg, profile.HeightCm,
		profile.Sex, profile.ActivityLevel, profile.Goal, profile.DietType,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert body profile: %w", err)
	}
	return &profile, nil
}

type nutritionGoalsStorage struct {
	pool *pgxpool.Pool
}

func (s *nutritionGoalsStorage) GetGoals(ctx context.Context, userID uuid.UUID) (*storage.NutritionGoal, error) {
	query := `
		SELECT user_id, calories, protein_g, carbs_g, fat_g, fiber_g, water_l, source, created_at, updated_at
		FROM nutrition_goals
		WHERE user_id = $1
	`

	var g storage.NutritionGoal
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&g.UserID, &g.Calories, &g.ProteinG, &g.CarbsG, &g.FatG,
		&g.FiberG, &g.WaterL, &g.Source, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition goals: %w", err)
	}
	return &g, nil
}

func (s *nutritionGoalsStorage) UpsertGoals(ctx context.Context, goal storage.NutritionGoal) (*storage.NutritionGoal, error) {
	query := `
		INSERT INTO nutrition_goals (user_id, calories, protein_g, carbs_g, fat_g, fiber_g, water_l, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			calories = EXCLUDED.calories,
			protein_g = EXCLUDED.protein_g,
			carbs_g = EXCLUDED.carbs_g,
			fat_g = EXCLUDED.fat_g,
			fiber_g = EXCLUDED.fiber_g,
			water_l = EXCLUDED.water_l,
			source = EXCLUDED.source,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		goal.UserID, goal.Calories, goal.ProteinG, goal.CarbsG, goal.FatG,
		goal.FiberG, goal.WaterL, goal.Source,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert nutrition goals: %w", err)
	}
	return &goal, nil
}

type nutritionLogsStorage struct {
	pool *pgxpool.Pool
}

func (s *nutritionLogsStorage) CreateLog(ctx context.Context, l *storage.NutritionLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	query := `
		INSERT INTO nutrition_logs (id, user_id, date, meal_type, food, calories, protein_g, carbs_g, fat_g)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query,
		l.ID, l.UserID, l.Date, l.MealType, l.Food, l.Calories, l.ProteinG, l.CarbsG, l.FatG,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create nutrition log: %w", err)
	}
	return nil
}

func (s *nutritionLogsStorage) ListLogs(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.NutritionLog, error) {
	query := `
		SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), meal_type, food, calories, protein_g, carbs_g, fat_g, created_at
		FROM nutrition_logs
		WHERE user_id = $1
		  AND ($2::date IS NULL OR date >= $2::date)
		  AND ($3::date IS NULL OR date <= $3::date)
		ORDER BY date ASC, created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition logs: %w", err)
	}
	defer rows.Close()

	logs := []storage.NutritionLog{}
	for rows.Next() {
		var l storage.NutritionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Date, &l.MealType, &l.Food,
			&l.Calories, &l.ProteinG, &l.CarbsG, &l.FatG, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *nutritionLogsStorage) DeleteLog(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nutrition_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete nutrition log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
