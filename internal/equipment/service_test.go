package equipment

import (
	"context"
	"testing"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(date string) func() time.Time {
	t, _ := time.Parse(time.DateOnly, date)
	return func() time.Time { return t.Add(10 * time.Hour) }
}

func newTestService(t *testing.T, today string) (*Service, *memory.MemoryStorage, context.Context) {
	t.Helper()
	mem := memory.New()
	user := &storage.User{Email: "gear@example.com", Name: "Gear", Role: "user"}
	require.NoError(t, mem.Users().CreateUser(context.Background(), user))

	svc := NewService(mem.Equipment())
	svc.now = fixedClock(today)
	return svc, mem, userctx.WithUserID(context.Background(), user.ID.String())
}

func TestCreateTaskDueDate(t *testing.T) {
	svc, _, ctx := newTestService(t, "2026-06-01")

	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Road bike", Category: "bike"})
	require.NoError(t, err)

	neverDone, err := svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube chain", IntervalDays: 14})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-15", neverDone.NextDueOn)
	assert.Empty(t, neverDone.LastDoneOn)

	done, err := svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Replace tires", IntervalDays: 30, LastDoneOn: "2026-04-20"})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-20", done.NextDueOn)
	assert.True(t, done.Overdue)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "", IntervalDays: 7})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "x", IntervalDays: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "x", IntervalDays: 7, LastDoneOn: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.CreateTask(ctx, uuid.New(), CreateTaskRequest{Title: "x", IntervalDays: 7})
	assert.ErrorIs(t, err, ErrEquipmentNotFound)

	_, err = svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCompleteTaskMovesDueDate(t *testing.T) {
	svc, _, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube chain", IntervalDays: 14})
	require.NoError(t, err)

	completed, err := svc.CompleteTask(ctx, task.ID, CompleteTaskRequest{DoneOn: "2026-06-10"})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-10", completed.LastDoneOn)
	assert.Equal(t, "2026-06-24", completed.NextDueOn)

	completed, err = svc.CompleteTask(ctx, task.ID, CompleteTaskRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", completed.LastDoneOn)
	assert.Equal(t, "2026-06-15", completed.NextDueOn)

	_, err = svc.CompleteTask(ctx, uuid.New(), CompleteTaskRequest{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListTasksDueBefore(t *testing.T) {
	svc, _, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Weekly", IntervalDays: 7})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Yearly", IntervalDays: 365})
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Weekly", all[0].Title)

	soon, err := svc.ListTasks(ctx, "2026-06-30")
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "Weekly", soon[0].Title)

	_, err = svc.ListTasks(ctx, "06/30/2026")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDeleteEquipmentCascades(t *testing.T) {
	svc, _, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube", IntervalDays: 7})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEquipment(ctx, bike.ID))

	tasks, err := svc.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.ErrorIs(t, svc.DeleteEquipment(ctx, bike.ID), ErrEquipmentNotFound)
}

func TestEquipmentOwnership(t *testing.T) {
	svc, mem, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)

	other := &storage.User{Email: "other@example.com", Name: "Other", Role: "user"}
	require.NoError(t, mem.Users().CreateUser(context.Background(), other))
	otherCtx := userctx.WithUserID(context.Background(), other.ID.String())

	items, err := svc.ListEquipment(otherCtx)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = svc.CreateTask(otherCtx, bike.ID, CreateTaskRequest{Title: "x", IntervalDays: 1})
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
	assert.ErrorIs(t, svc.DeleteEquipment(otherCtx, bike.ID), ErrEquipmentNotFound)

	_, err = svc.ListEquipment(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
