package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

type equipmentStorage struct {
	mu    sync.RWMutex
	items map[uuid.UUID]storage.Equipment
	tasks map[uuid.UUID]storage.MaintenanceTask
}

func newEquipmentStorage() *equipmentStorage {
	return &equipmentStorage{
		items: make(map[uuid.UUID]storage.Equipment),
		tasks: make(map[uuid.UUID]storage.MaintenanceTask),
	}
}

func (s *equipmentStorage) CreateEquipment(ctx context.Context, e *storage.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.items[e.ID] = *e
	return nil
}

func (s *equipmentStorage) GetEquipment(ctx context.Context, userID, id uuid.UUID) (*storage.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok || e.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (s *equipmentStorage) ListEquipment(ctx context.Context, userID uuid.UUID) ([]storage.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.Equipment{}
	for _, e := range s.items {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *equipmentStorage) DeleteEquipment(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	for taskID, t := range s.tasks {
		if t.EquipmentID == id {
			delete(s.tasks, taskID)
		}
	}
	return nil
}

func (s *equipmentStorage) CreateTask(ctx context.Context, t *storage.MaintenanceTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[t.EquipmentID]; !ok {
		return storage.ErrNotFound
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = *t
	return nil
}

func (s *equipmentStorage) GetTask(ctx context.Context, userID, id uuid.UUID) (*storage.MaintenanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (s *equipmentStorage) UpdateTask(ctx context.Context, t *storage.MaintenanceTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	s.tasks[t.ID] = *t
	return nil
}

func (s *equipmentStorage) ListTasks(ctx context.Context, userID uuid.UUID, dueBefore string) ([]storage.MaintenanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.MaintenanceTask{}
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if dueBefore != "" && t.NextDueOn > dueBefore {
			continue
		}
		result = append(result, t)
	}
	sortTasks(result)
	return result, nil
}

func (s *equipmentStorage) ListDueTasks(ctx context.Context, date string) ([]storage.MaintenanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.MaintenanceTask{}
	for _, t := range s.tasks {
		if t.NextDueOn <= date && t.NotifiedFor != t.NextDueOn {
			result = append(result, t)
		}
	}
	sortTasks(result)
	return result, nil
}

func (s *equipmentStorage) MarkTaskNotified(ctx context.Context, id uuid.UUID, dueOn string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.NextDueOn != dueOn {
		return false, nil
	}
	t.NotifiedFor = dueOn
	t.UpdatedAt = time.Now().UTC()
	s.tasks[id] = t
	return true, nil
}

func sortTasks(tasks []storage.MaintenanceTask) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].NextDueOn != tasks[j].NextDueOn {
			return tasks[i].NextDueOn < tasks[j].NextDueOn
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
