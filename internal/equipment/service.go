package equipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrTaskNotFound      = errors.New("maintenance task not found")
)

// Service manages equipment and recurring maintenance tasks.
type Service struct {
	storage storage.EquipmentStorage
	now     func() time.Time
}

func NewService(st storage.EquipmentStorage) *Service {
	return &Service{storage: st, now: time.Now}
}

func (s *Service) CreateEquipment(ctx context.Context, req CreateEquipmentRequest) (*EquipmentDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	e := storage.Equipment{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		PurchasedOn: strings.TrimSpace(req.PurchasedOn),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if e.Name == "" || len(e.Name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidRequest, maxNameLength)
	}
	if len(e.Category) > maxNameLength {
		return nil, fmt.Errorf("%w: category is too long", ErrInvalidRequest)
	}
	if e.PurchasedOn != "" && !isDate(e.PurchasedOn) {
		return nil, fmt.Errorf("%w: purchased_on must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if len(e.Notes) > maxNotesLength {
		return nil, fmt.Errorf("%w: notes are too long", ErrInvalidRequest)
	}

	if err := s.storage.CreateEquipment(ctx, &e); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}
	dto := toEquipmentDTO(e)
	return &dto, nil
}

func (s *Service) ListEquipment(ctx context.Context) ([]EquipmentDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.storage.ListEquipment(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]EquipmentDTO, 0, len(items))
	for _, e := range items {
		result = append(result, toEquipmentDTO(e))
	}
	return result, nil
}

// DeleteEquipment removes the equipment together with its tasks.
func (s *Service) DeleteEquipment(ctx context.Context, id uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteEquipment(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEquipmentNotFound
		}
		return err
	}
	return nil
}

// CreateTask schedules maintenance for a piece of equipment. The first due
// date counts from last_done_on, or from today when it was never done.
func (s *Service) CreateTask(ctx context.Context, equipmentID uuid.UUID, req CreateTaskRequest) (*TaskDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > maxNameLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidRequest, maxNameLength)
	}
	if req.IntervalDays < 1 || req.IntervalDays > maxIntervalDays {
		return nil, fmt.Errorf("%w: interval_days must be between 1 and %d", ErrInvalidRequest, maxIntervalDays)
	}
	lastDone := strings.TrimSpace(req.LastDoneOn)
	if lastDone != "" && !isDate(lastDone) {
		return nil, fmt.Errorf("%w: last_done_on must be YYYY-MM-DD", ErrInvalidRequest)
	}

	if _, err := s.storage.GetEquipment(ctx, userID, equipmentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}

	base := lastDone
	if base == "" {
		base = s.today()
	}
	t := storage.MaintenanceTask{
		EquipmentID:  equipmentID,
		UserID:       userID,
		Title:        title,
		IntervalDays: req.IntervalDays,
		LastDoneOn:   lastDone,
		NextDueOn:    addDays(base, req.IntervalDays),
	}
	if err := s.storage.CreateTask(ctx, &t); err != nil {
		return nil, fmt.Errorf("failed to create maintenance task: %w", err)
	}
	dto := toTaskDTO(t, s.today())
	return &dto, nil
}

// ListTasks returns the user's tasks; dueBefore filters to next_due_on <= dueBefore.
func (s *Service) ListTasks(ctx context.Context, dueBefore string) ([]TaskDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if dueBefore != "" && !isDate(dueBefore) {
		return nil, fmt.Errorf("%w: due_before must be YYYY-MM-DD", ErrInvalidRequest)
	}

	tasks, err := s.storage.ListTasks(ctx, userID, dueBefore)
	if err != nil {
		return nil, err
	}
	today := s.today()
	result := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, toTaskDTO(t, today))
	}
	return result, nil
}

// CompleteTask records the task as done and moves the due date forward.
func (s *Service) CompleteTask(ctx context.Context, id uuid.UUID, req CompleteTaskRequest) (*TaskDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	doneOn := strings.TrimSpace(req.DoneOn)
	if doneOn == "" {
		doneOn = s.today()
	}
	if !isDate(doneOn) {
		return nil, fmt.Errorf("%w: done_on must be YYYY-MM-DD", ErrInvalidRequest)
	}

	t, err := s.storage.GetTask(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	t.LastDoneOn = doneOn
	t.NextDueOn = addDays(doneOn, t.IntervalDays)
	if err := s.storage.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update maintenance task: %w", err)
	}
	dto := toTaskDTO(*t, s.today())
	return &dto, nil
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

func addDays(date string, days int) string {
	t, _ := time.Parse(time.DateOnly, date)
	return t.AddDate(0, 0, days).Format(time.DateOnly)
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
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
