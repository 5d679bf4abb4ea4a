package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type equipmentStorage struct {
	pool *pgxpool.Pool
}

const equipmentColumns = `id, user_id, name, category, COALESCE(to_char(purchased_on, 'YYYY-MM-DD'), ''), notes, created_at, updated_at`

const taskColumns = `id, equipment_id, user_id, title, interval_days,
	COALESCE(to_char(last_done_on, 'YYYY-MM-DD'), ''),
	to_char(next_due_on, 'YYYY-MM-DD'),
	COALESCE(to_char(notified_for, 'YYYY-MM-DD'), ''),
	created_at, updated_at`

func scanEquipment(row pgx.Row) (*storage.Equipment, error) {
	var e storage.Equipment
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Category, &e.PurchasedOn,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanTask(row pgx.Row) (*storage.MaintenanceTask, error) {
	var t storage.MaintenanceTask
	if err := row.Scan(&t.ID, &t.EquipmentID, &t.UserID, &t.Title, &t.IntervalDays,
		&t.LastDoneOn, &t.NextDueOn, &t.NotifiedFor, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *equipmentStorage) CreateEquipment(ctx context.Context, e *storage.Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `
		INSERT INTO equipment (id, user_id, name, category, purchased_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.Name, e.Category, nullableDate(e.PurchasedOn), e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

func (s *equipmentStorage) GetEquipment(ctx context.Context, userID, id uuid.UUID) (*storage.Equipment, error) {
	e, err := scanEquipment(s.pool.QueryRow(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return e, nil
}

func (s *equipmentStorage) ListEquipment(ctx context.Context, userID uuid.UUID) ([]storage.Equipment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	items := []storage.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

// DeleteEquipment relies on ON DELETE CASCADE for maintenance tasks.
func (s *equipmentStorage) DeleteEquipment(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM equipment WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *equipmentStorage) CreateTask(ctx context.Context, t *storage.MaintenanceTask) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO maintenance_tasks (id, equipment_id, user_id, title, interval_days, last_done_on, next_due_on, notified_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		t.ID, t.EquipmentID, t.UserID, t.Title, t.IntervalDays,
		nullableDate(t.LastDoneOn), t.NextDueOn, nullableDate(t.NotifiedFor),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create maintenance task: %w", err)
	}
	return nil
}

func (s *equipmentStorage) GetTask(ctx context.Context, userID, id uuid.UUID) (*storage.MaintenanceTask, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM maintenance_tasks WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return t, nil
}

func (s *equipmentStorage) UpdateTask(ctx context.Context, t *storage.MaintenanceTask) error {
	query := `
		UPDATE maintenance_tasks
		SET title = $3, interval_days = $4, last_done_on = $5, next_due_on = $6, notified_for = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.IntervalDays,
		nullableDate(t.LastDoneOn), t.NextDueOn, nullableDate(t.NotifiedFor),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return notFoundOr(err)
	}
	return nil
}

func (s *equipmentStorage) ListTasks(ctx context.Context, userID uuid.UUID, dueBefore string) ([]storage.MaintenanceTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM maintenance_tasks
		WHERE user_id = $1
		  AND ($2::date IS NULL OR next_due_on <= $2::date)
		ORDER BY next_due_on ASC, created_at ASC
	`
	return s.queryTasks(ctx, query, userID, nullableDate(dueBefore))
}

func (s *equipmentStorage) ListDueTasks(ctx context.Context, date string) ([]storage.MaintenanceTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM maintenance_tasks
		WHERE next_due_on <= $1::date
		  AND (notified_for IS NULL OR notified_for <> next_due_on)
		ORDER BY next_due_on ASC, created_at ASC
	`
	return s.queryTasks(ctx, query, date)
}

func (s *equipmentStorage) MarkTaskNotified(ctx context.Context, id uuid.UUID, dueOn string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE maintenance_tasks
		SET notified_for = $2::date, updated_at = now()
		WHERE id = $1 AND next_due_on = $2::date
	`, id, dueOn)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *equipmentStorage) queryTasks(ctx context.Context, query string, args ...any) ([]storage.MaintenanceTask, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance tasks: %w", err)
	}
	defer rows.Close()

	tasks := []storage.MaintenanceTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
