package equipment

import (
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

const (
	maxNameLength   = 120
	maxNotesLength  = 1000
	maxIntervalDays = 3650
)

type EquipmentDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	PurchasedOn string    `json:"purchased_on,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

type TaskDTO struct {
	ID           uuid.UUID `json:"id"`
	EquipmentID  uuid.UUID `json:"equipment_id"`
	Title        string    `json:"title"`
	IntervalDays int       `json:"interval_days"`
	LastDoneOn   string    `json:"last_done_on,omitempty"`
	NextDueOn    string    `json:"next_due_on"`
	Overdue      bool      `json:"overdue"`
}

type CreateEquipmentRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	PurchasedOn string `json:"purchased_on"`
	Notes       string `json:"notes"`
}

type CreateTaskRequest struct {
	Title        string `json:"title"`
	IntervalDays int    `json:"interval_days"`
	LastDoneOn   string `json:"last_done_on"`
}

type CompleteTaskRequest struct {
	DoneOn string `json:"done_on"`
}

type ListEquipmentResponse struct {
	Equipment []EquipmentDTO `json:"equipment"`
}

type ListTasksResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

func toEquipmentDTO(e storage.Equipment) EquipmentDTO {
	return EquipmentDTO{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		PurchasedOn: e.PurchasedOn,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

func toTaskDTO(t storage.MaintenanceTask, today string) TaskDTO {
	return TaskDTO{
		ID:           t.ID,
		EquipmentID:  t.EquipmentID,
		Title:        t.Title,
		IntervalDays: t.IntervalDays,
		LastDoneOn:   t.LastDoneOn,
		NextDueOn:    t.NextDueOn,
		Overdue:      t.NextDueOn < today,
	}
}
