package postgres

import (
	"context"
	"errors"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage Postgres реализация storage.Storage
type PostgresStorage struct {
	pool           *pgxpool.Pool
	users          *usersStorage
	profiles       *profilesStorage
	nutritionGoals *nutritionGoalsStorage
	nutritionLogs  *nutritionLogsStorage
	workouts       *workoutsStorage
	equipment      *equipmentStorage
	community      *communityStorage
	notifications  *notificationsStorage
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:           pool,
		users:          &usersStorage{pool: pool},
		profiles:       &profilesStorage{pool: pool},
		nutritionGoals: &nutritionGoalsStorage{pool: pool},
		nutritionLogs:  &nutritionLogsStorage{pool: pool},
		workouts:       &workoutsStorage{pool: pool},
		equipment:      &equipmentStorage{pool: pool},
		community:      &communityStorage{pool: pool},
		notifications:  &notificationsStorage{pool: pool},
	}, nil
}

func (p *PostgresStorage) Users() storage.UsersStorage                   { return p.users }
func (p *PostgresStorage) Profiles() storage.ProfilesStorage             { return p.profiles }
func (p *PostgresStorage) NutritionGoals() storage.NutritionGoalsStorage { return p.nutritionGoals }
func (p *PostgresStorage) NutritionLogs() storage.NutritionLogsStorage   { return p.nutritionLogs }
func (p *PostgresStorage) Workouts() storage.WorkoutsStorage             { return p.workouts }
func (p *PostgresStorage) Equipment() storage.EquipmentStorage           { return p.equipment }
func (p *PostgresStorage) Community() storage.CommunityStorage           { return p.community }
func (p *PostgresStorage) Notifications() storage.NotificationsStorage   { return p.notifications }

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// isUniqueViolation reports a 23505 error from Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// nullableDate maps "" to SQL NULL for DATE columns.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}
