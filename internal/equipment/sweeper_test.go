package equipment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/notifications"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentReminder struct {
	userID uuid.UUID
	kind   string
	title  string
	body   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentReminder
	err    error
	onSend func()
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, body string) error {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return f.err
	}
	f.sent = append(f.sent, sentReminder{userID: userID, kind: kind, title: title, body: body})
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func TestSweepNotifiesOncePerDueDate(t *testing.T) {
	svc, mem, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Road bike"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube chain", IntervalDays: 7, LastDoneOn: "2026-05-20"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Service", IntervalDays: 90})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	m := metrics.NewTestManager()
	sweeper := NewSweeper(mem.Equipment(), notifier, m, time.Hour)
	sweeper.now = fixedClock("2026-06-01")

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifications.KindMaintenanceDue, notifier.sent[0].kind)
	assert.Contains(t, notifier.sent[0].title, "Lube chain")
	assert.Contains(t, notifier.sent[0].body, "Road bike")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterMaintenanceDue))

	// повторный проход в тот же день ничего не шлёт
	n, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// после выполнения и наступления новой даты напоминание приходит снова
	_, err = svc.CompleteTask(ctx, task.ID, CompleteTaskRequest{DoneOn: "2026-06-01"})
	require.NoError(t, err)
	sweeper.now = fixedClock("2026-06-08")
	n, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, notifier.sent, 2)
}

func TestSweepKeepsCompletionMadeDuringReminder(t *testing.T) {
	svc, mem, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Road bike"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube chain", IntervalDays: 7, LastDoneOn: "2026-05-20"})
	require.NoError(t, err)
	require.Equal(t, "2026-05-27", task.NextDueOn)

	notifier := &fakeNotifier{}
	notifier.onSend = func() {
		_, err := svc.CompleteTask(ctx, task.ID, CompleteTaskRequest{DoneOn: "2026-06-01"})
		require.NoError(t, err)
	}
	sweeper := NewSweeper(mem.Equipment(), notifier, nil, time.Hour)
	sweeper.now = fixedClock("2026-06-01")

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tasks, err := svc.ListTasks(ctx, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2026-06-01", tasks[0].LastDoneOn)
	assert.Equal(t, "2026-06-08", tasks[0].NextDueOn)

	// для новой даты напоминание приходит отдельно
	notifier.onSend = nil
	sweeper.now = fixedClock("2026-06-08")
	n, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweepNotifierFailureRetriesLater(t *testing.T) {
	svc, mem, ctx := newTestService(t, "2026-06-01")
	bike, err := svc.CreateEquipment(ctx, CreateEquipmentRequest{Name: "Bike"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bike.ID, CreateTaskRequest{Title: "Lube", IntervalDays: 1, LastDoneOn: "2026-05-01"})
	require.NoError(t, err)

	notifier := &fakeNotifier{err: errors.New("boom")}
	sweeper := NewSweeper(mem.Equipment(), notifier, nil, time.Hour)
	sweeper.now = fixedClock("2026-06-01")

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	notifier.err = nil
	n, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweeperRunDisabled(t *testing.T) {
	sweeper := NewSweeper(nil, nil, nil, 0)

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	_, mem, _ := newTestService(t, "2026-06-01")
	sweeper := NewSweeper(mem.Equipment(), &fakeNotifier{}, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
