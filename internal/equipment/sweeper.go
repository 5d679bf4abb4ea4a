package equipment

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/notifications"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

// Sweeper periodically notifies owners about maintenance that is due.
// Each task is notified at most once per due date.
type Sweeper struct {
	storage  storage.EquipmentStorage
	notifier Notifier
	metrics  *metrics.Manager
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(st storage.EquipmentStorage, notifier Notifier, m *metrics.Manager, interval time.Duration) *Sweeper {
	return &Sweeper{
		storage:  st,
		notifier: notifier,
		metrics:  m,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A non-positive interval disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Info("maintenance sweeper disabled")
		return
	}
	log.Infof("maintenance sweeper started, interval=%s", s.interval)

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("maintenance sweeper stopped")
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		log.WithError(err).Error("maintenance sweep failed")
		return
	}
	if n > 0 {
		log.Infof("maintenance sweep: %d reminders sent", n)
	}
}

// Sweep notifies owners of every due task not yet notified for its
// current due date and returns the number of reminders sent.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.HistSweepDuration.Observe(time.Since(start).Seconds())
		}
	}()

	today := s.now().UTC().Format(time.DateOnly)
	tasks, err := s.storage.ListDueTasks(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due tasks: %w", err)
	}

	sent := 0
	for i := range tasks {
		t := tasks[i]
		title := "Maintenance due: " + t.Title
		body := fmt.Sprintf("%q was due on %s.", t.Title, t.NextDueOn)
		if e, err := s.storage.GetEquipment(ctx, t.UserID, t.EquipmentID); err == nil {
			body = fmt.Sprintf("%s: %q was due on %s.", e.Name, t.Title, t.NextDueOn)
		}

		if err := s.notifier.Notify(ctx, t.UserID, notifications.KindMaintenanceDue, title, body); err != nil {
			log.WithError(err).WithField("task_id", t.ID).Warn("maintenance reminder failed")
			continue
		}

		marked, err := s.storage.MarkTaskNotified(ctx, t.ID, t.NextDueOn)
		if err != nil {
			return sent, fmt.Errorf("mark task %s notified: %w", t.ID, err)
		}
		if !marked {
			// completed while the reminder was in flight
			log.WithField("task_id", t.ID).Debug("maintenance task moved during sweep")
		}
		sent++
		if s.metrics != nil {
			s.metrics.CounterMaintenanceDue.Inc()
		}
	}
	return sent, nil
}
