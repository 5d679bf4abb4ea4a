package notifications

import (
	"context"
	"testing"

	"github.com/fdg312/fithub/internal/mailer"
	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service *Service
	hub     *Hub
	sender  *mailer.LocalSender
	metrics *metrics.Manager
	user    *storage.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	user := &storage.User{Email: "owner@example.com", Name: "Owner", Role: "user"}
	require.NoError(t, mem.Users().CreateUser(context.Background(), user))

	m := metrics.NewTestManager()
	hub := NewHub(m)
	sender := mailer.NewLocalSender()
	return &fixture{
		service: NewService(mem.Notifications(), mem.Users(), hub, sender, m),
		hub:     hub,
		sender:  sender,
		metrics: m,
		user:    user,
	}
}

func (f *fixture) ctx() context.Context {
	return userctx.WithUserID(context.Background(), f.user.ID.String())
}

func TestNotifyPersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	stream, cancel := f.hub.Subscribe(f.user.ID)
	defer cancel()

	require.NoError(t, f.service.Notify(context.Background(), f.user.ID, KindGoalsUpdated, "Goals updated", "2672 kcal"))

	items, err := f.service.List(f.ctx(), false, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KindGoalsUpdated, items[0].Kind)

	pushed := <-stream
	assert.Equal(t, items[0].ID, pushed.ID)
	assert.Empty(t, f.sender.Sent(), "goals_updated is not emailed")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterNotifications.WithLabelValues(KindGoalsUpdated)))
}

func TestNotifyEmailsMaintenanceDue(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.Notify(context.Background(), f.user.ID, KindMaintenanceDue, "Maintenance due", "Chain lube"))

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner@example.com", sent[0].To)
	assert.Equal(t, "Maintenance due", sent[0].Subject)
}

func TestNotifyValidation(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.service.Notify(context.Background(), uuid.Nil, KindGoalsUpdated, "t", ""), ErrInvalidRequest)
	assert.ErrorIs(t, f.service.Notify(context.Background(), f.user.ID, "", "t", ""), ErrInvalidRequest)
	assert.ErrorIs(t, f.service.Notify(context.Background(), f.user.ID, KindGoalsUpdated, " ", ""), ErrInvalidRequest)
}

func TestUnreadAndMarkAllRead(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.service.Notify(context.Background(), f.user.ID, KindPostLiked, "Like", ""))
	}

	count, err := f.service.UnreadCount(f.ctx())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	updated, err := f.service.MarkAllRead(f.ctx())
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	unread, err := f.service.List(f.ctx(), true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := f.service.List(f.ctx(), false, 2, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotNil(t, all[0].ReadAt)
}

func TestServiceRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.List(context.Background(), false, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.service.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
