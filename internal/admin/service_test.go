package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/fithub/internal/notifications"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notified struct {
	userID uuid.UUID
	kind   string
}

type recorder struct {
	items []notified
}

func (r *recorder) Notify(_ context.Context, userID uuid.UUID, kind, _, _ string) error {
	r.items = append(r.items, notified{userID: userID, kind: kind})
	return nil
}

type env struct {
	svc      *Service
	mem      *memory.MemoryStorage
	notifier *recorder
	admin    context.Context
	adminID  uuid.UUID
	user     context.Context
	userID   uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := memory.New()
	mk := func(name, role string) (uuid.UUID, context.Context) {
		u := &storage.User{Email: name + "@example.com", Name: name, Role: role}
		require.NoError(t, mem.Users().CreateUser(context.Background(), u))
		ctx := userctx.WithUserID(context.Background(), u.ID.String())
		return u.ID, userctx.WithRole(ctx, role)
	}
	adminID, adminCtx := mk("root", RoleAdmin)
	userID, userCtx := mk("alice", RoleUser)

	rec := &recorder{}
	return &env{
		svc:      NewService(mem.Users(), mem.Workouts(), mem.Community(), rec),
		mem:      mem,
		notifier: rec,
		admin:    adminCtx,
		adminID:  adminID,
		user:     userCtx,
		userID:   userID,
	}
}

func TestListUsers(t *testing.T) {
	e := newEnv(t)

	resp, err := e.svc.ListUsers(e.admin, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Users, 2)
	assert.Equal(t, defaultUsersLimit, resp.Limit)

	resp, err = e.svc.ListUsers(e.admin, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Users, 1)

	resp, err = e.svc.ListUsers(e.admin, 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, maxUsersLimit, resp.Limit)

	_, err = e.svc.ListUsers(e.user, 0, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.svc.ListUsers(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateRole(t *testing.T) {
	e := newEnv(t)

	u, err := e.svc.UpdateRole(e.admin, e.userID, UpdateRoleRequest{Role: " Admin "})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	require.Len(t, e.notifier.items, 1)
	assert.Equal(t, e.userID, e.notifier.items[0].userID)
	assert.Equal(t, notifications.KindRoleChanged, e.notifier.items[0].kind)

	stored, err := e.mem.Users().GetUser(context.Background(), e.userID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, stored.Role)

	// unchanged role does not notify again
	_, err = e.svc.UpdateRole(e.admin, e.userID, UpdateRoleRequest{Role: "admin"})
	require.NoError(t, err)
	assert.Len(t, e.notifier.items, 1)

	_, err = e.svc.UpdateRole(e.admin, e.userID, UpdateRoleRequest{Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.svc.UpdateRole(e.admin, e.adminID, UpdateRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.svc.UpdateRole(e.admin, uuid.New(), UpdateRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// alice was promoted above; a demotion revokes access even when the
	// context still carries the admin claim
	stale := userctx.WithRole(e.user, RoleAdmin)
	_, err = e.svc.ListUsers(stale, 0, 0)
	require.NoError(t, err)

	_, err = e.svc.UpdateRole(e.admin, e.userID, UpdateRoleRequest{Role: "user"})
	require.NoError(t, err)

	_, err = e.svc.UpdateRole(stale, e.adminID, UpdateRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.svc.ListUsers(stale, 0, 0)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.mem.Workouts().CreateWorkout(ctx, &storage.Workout{
		UserID: e.userID, Date: "2025-03-01", Type: "run", DurationMin: 30, CaloriesKcal: 300,
	}))
	require.NoError(t, e.mem.Community().CreatePost(ctx, &storage.Post{UserID: e.userID, Body: "hi"}))

	stats, err := e.svc.Stats(e.admin)
	require.NoError(t, err)
	assert.Equal(t, StatsResponse{Users: 2, Workouts: 1, Posts: 1}, *stats)

	_, err = e.svc.Stats(e.user)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/admin/users", h.HandleListUsers)
	mux.HandleFunc("PATCH /v1/admin/users/{id}/role", h.HandleUpdateRole)
	mux.HandleFunc("GET /v1/admin/stats", h.HandleStats)

	send := func(ctx context.Context, method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewBufferString(body)).WithContext(ctx)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	w := send(e.admin, http.MethodGet, "/v1/admin/users?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list ListUsersResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Users, 2)

	w = send(e.admin, http.MethodGet, "/v1/admin/users?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(e.user, http.MethodGet, "/v1/admin/stats", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(e.admin, http.MethodGet, "/v1/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Users)

	w = send(e.admin, http.MethodPatch, "/v1/admin/users/not-a-uuid/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(e.admin, http.MethodPatch, "/v1/admin/users/"+e.userID.String()+"/role", `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = send(e.admin, http.MethodPatch, "/v1/admin/users/"+uuid.NewString()+"/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
