package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fdg312/fithub/internal/blob"
	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	urlErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlobStore) PutObject(_ context.Context, key string, data []byte, contentType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return int64(len(data)), nil
}

func (f *fakeBlobStore) ObjectURL(_ context.Context, key string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://blob.test/" + key + "?sig=1", nil
}

func (f *fakeBlobStore) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type testSetup struct {
	handlers *Handlers
	service  *Service
	metrics  *metrics.Manager
	userID   uuid.UUID
	ctx      context.Context
}

func setupTest(t *testing.T, store *fakeBlobStore) *testSetup {
	t.Helper()
	mem := memory.New()
	ctx := context.Background()

	user := &storage.User{Email: "r@example.com", Name: "Reporter", Role: "user"}
	if err := mem.Users().CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := mem.NutritionGoals().UpsertGoals(ctx, storage.NutritionGoal{
		UserID: user.ID, Calories: 2000, ProteinG: 150, CarbsG: 200, FatG: 60, FiberG: 25, WaterL: 2.5, Source: "manual",
	}); err != nil {
		t.Fatalf("upsert goals: %v", err)
	}
	for _, l := range []storage.NutritionLog{
		{UserID: user.ID, Date: "2026-02-10", MealType: "breakfast", Food: "Oats", Calories: 500, ProteinG: 20, CarbsG: 80, FatG: 10},
		{UserID: user.ID, Date: "2026-02-10", MealType: "dinner", Food: "Fish", Calories: 1400, ProteinG: 90.5, CarbsG: 60, FatG: 45},
		{UserID: user.ID, Date: "2026-02-12", MealType: "lunch", Food: "Soup", Calories: 700},
	} {
		entry := l
		if err := mem.NutritionLogs().CreateLog(ctx, &entry); err != nil {
			t.Fatalf("create log: %v", err)
		}
	}
	if err := mem.Workouts().CreateWorkout(ctx, &storage.Workout{
		UserID: user.ID, Date: "2026-02-11", Type: "run", DurationMin: 40, CaloriesKcal: 450, DistanceKm: 7.5,
	}); err != nil {
		t.Fatalf("create workout: %v", err)
	}

	m := metrics.NewTestManager()
	gen := NewGenerator(mem.NutritionGoals(), mem.NutritionLogs(), mem.Workouts())
	var blobStore blob.Store
	if store != nil {
		blobStore = store
	}
	svc := NewService(gen, blobStore, 90, m)

	return &testSetup{
		handlers: NewHandlers(svc),
		service:  svc,
		metrics:  m,
		userID:   user.ID,
		ctx:      userctx.WithUserID(ctx, user.ID.String()),
	}
}

func (s *testSetup) post(t *testing.T, body CreateReportRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewReader(raw)).WithContext(s.ctx)
	w := httptest.NewRecorder()
	s.handlers.HandleCreate(w, req)
	return w
}

func TestCreateCSVStreamed(t *testing.T) {
	s := setupTest(t, nil)

	w := s.post(t, CreateReportRequest{From: "2026-02-10", To: "2026-02-12", Format: "csv"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "fithub-report-2026-02-10-2026-02-12.csv") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 days, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "date,calories,protein_g,carbs_g,fat_g,calories_goal,calories_pct,workouts,workout_minutes,workout_calories" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	want := []string{"2026-02-10", "1900", "110.5", "140", "55", "2000", "95", "0", "0", "0"}
	if strings.Join(rows[1], ",") != strings.Join(want, ",") {
		t.Errorf("day 1: got %v, want %v", rows[1], want)
	}
	if rows[2][7] != "1" || rows[2][8] != "40" || rows[2][9] != "450" {
		t.Errorf("day 2 workouts: %v", rows[2])
	}
	if got := testutil.ToFloat64(s.metrics.CounterReports.WithLabelValues("csv", DeliveryStream)); got != 1 {
		t.Errorf("expected stream counter 1, got %v", got)
	}
}

func TestCreatePDFStreamed(t *testing.T) {
	s := setupTest(t, nil)

	w := s.post(t, CreateReportRequest{From: "2026-02-01", To: "2026-02-28", Format: "pdf"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF signature")
	}
}

func TestCreateArchivedInBlobStore(t *testing.T) {
	store := newFakeBlobStore()
	s := setupTest(t, store)

	w := s.post(t, CreateReportRequest{From: "2026-02-10", To: "2026-02-12", Format: "pdf"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var dto ReportDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantKey := "reports/" + s.userID.String() + "/" + dto.ID.String() + ".pdf"
	if dto.ObjectKey != wantKey {
		t.Errorf("expected key %s, got %s", wantKey, dto.ObjectKey)
	}
	if dto.URL != "https://blob.test/"+wantKey+"?sig=1" {
		t.Errorf("unexpected url %s", dto.URL)
	}
	data, ok := store.objects[wantKey]
	if !ok || int64(len(data)) != dto.SizeBytes {
		t.Errorf("object not stored or size mismatch")
	}
	if store.types[wantKey] != "application/pdf" {
		t.Errorf("unexpected stored content type %s", store.types[wantKey])
	}
	if got := testutil.ToFloat64(s.metrics.CounterReports.WithLabelValues("pdf", DeliveryBlob)); got != 1 {
		t.Errorf("expected blob counter 1, got %v", got)
	}
}

func TestCreateURLFailureCleansUp(t *testing.T) {
	store := newFakeBlobStore()
	store.urlErr = errors.New("presign failed")
	s := setupTest(t, store)

	w := s.post(t, CreateReportRequest{From: "2026-02-10", To: "2026-02-12", Format: "csv"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if len(store.objects) != 0 {
		t.Errorf("expected uploaded object to be removed, got %d", len(store.objects))
	}
}

func TestCreateValidation(t *testing.T) {
	s := setupTest(t, nil)

	tests := []struct {
		name string
		req  CreateReportRequest
		code string
	}{
		{"bad format", CreateReportRequest{From: "2026-02-01", To: "2026-02-02", Format: "xlsx"}, "invalid_format"},
		{"bad date", CreateReportRequest{From: "2026/02/01", To: "2026-02-02", Format: "csv"}, "invalid_date"},
		{"inverted", CreateReportRequest{From: "2026-02-05", To: "2026-02-01", Format: "csv"}, "invalid_range"},
		{"too long", CreateReportRequest{From: "2026-01-01", To: "2026-04-01", Format: "csv"}, "range_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.post(t, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var resp map[string]map[string]string
			json.NewDecoder(w.Body).Decode(&resp)
			if resp["error"]["code"] != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp["error"]["code"])
			}
		})
	}

	// ровно 90 дней включительно допустимо
	if w := s.post(t, CreateReportRequest{From: "2026-01-01", To: "2026-03-31", Format: "csv"}); w.Code != http.StatusOK {
		t.Errorf("90-day range: expected 200, got %d", w.Code)
	}
}

func TestCreateUnauthorized(t *testing.T) {
	s := setupTest(t, nil)

	raw, _ := json.Marshal(CreateReportRequest{From: "2026-02-01", To: "2026-02-02", Format: "csv"})
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	s.handlers.HandleCreate(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
