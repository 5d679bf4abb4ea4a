package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/fithub/internal/nutrition"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func setup(t *testing.T) (*Handler, *memory.MemoryStorage, context.Context) {
	t.Helper()
	store := memory.New()
	user := &storage.User{Email: "p@example.com", Name: "P", Role: "user"}
	if err := store.Users().CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	goals := nutrition.NewService(store.Profiles(), store.NutritionGoals(), store.NutritionLogs(), nil)
	handler := NewHandler(NewService(store.Profiles(), goals))
	return handler, store, userctx.WithUserID(context.Background(), user.ID.String())
}

func putProfile(t *testing.T, h *Handler, ctx context.Context, p nutrition.UserProfile) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(p)
	req := httptest.NewRequest(http.MethodPut, "/v1/profile", bytes.NewReader(body)).WithContext(ctx)
	w := httptest.NewRecorder()
	h.HandlePut(w, req)
	return w
}

func TestHandleGetNotFound(t *testing.T) {
	h, _, ctx := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.HandleGet(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandlePutRecomputesGoals(t *testing.T) {
	h, store, ctx := setup(t)

	w := putProfile(t, h, ctx, nutrition.UserProfile{
		Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male",
		ActivityLevel: "moderate", Goal: "maintain", DietType: "balanced",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp UpdateProfileResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Goals.Calories != 2672 || resp.Goals.Source != nutrition.SourceComputed {
		t.Errorf("unexpected goals: %+v", resp.Goals)
	}

	// Смена цели на похудение должна пересчитать калории
	w = putProfile(t, h, ctx, nutrition.UserProfile{
		Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male",
		ActivityLevel: "moderate", Goal: "lose", DietType: "balanced",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Goals.Calories != 2271 {
		t.Errorf("expected 2271 kcal after goal change, got %d", resp.Goals.Calories)
	}

	userID, _ := userctx.GetUserID(ctx)
	stored, err := store.NutritionGoals().GetGoals(ctx, mustParse(t, userID))
	if err != nil || stored == nil {
		t.Fatalf("expected stored goals, err=%v", err)
	}
	if stored.Calories != 2271 {
		t.Errorf("stored goals not updated: %d", stored.Calories)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil).WithContext(ctx)
	w = httptest.NewRecorder()
	h.HandleGet(w, req)
	var profile ProfileDTO
	json.NewDecoder(w.Body).Decode(&profile)
	if profile.Goal != "lose" {
		t.Errorf("expected goal lose, got %s", profile.Goal)
	}
}

func TestHandlePutUnknownDietFallsBack(t *testing.T) {
	h, store, ctx := setup(t)
	hook := logtest.NewGlobal()
	defer hook.Reset()

	w := putProfile(t, h, ctx, nutrition.UserProfile{
		Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male",
		ActivityLevel: "moderate", Goal: "maintain", DietType: " Carnivore ",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp UpdateProfileResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Profile.DietType != "carnivore" {
		t.Errorf("expected requested diet type to be kept, got %s", resp.Profile.DietType)
	}
	if resp.Profile.DietTypeApplied != nutrition.DietBalanced {
		t.Errorf("expected balanced to be applied, got %s", resp.Profile.DietTypeApplied)
	}
	if resp.Goals.Calories != 2672 || resp.Goals.Carbs != 367 {
		t.Errorf("expected balanced goals 2672 kcal / 367 g carbs, got %d / %d", resp.Goals.Calories, resp.Goals.Carbs)
	}

	userID, _ := userctx.GetUserID(ctx)
	stored, err := store.Profiles().GetProfile(context.Background(), mustParse(t, userID))
	if err != nil || stored == nil {
		t.Fatalf("get profile: %v", err)
	}
	if stored.DietType != "carnivore" {
		t.Errorf("expected stored diet type carnivore, got %s", stored.DietType)
	}

	fallback := false
	for _, e := range hook.AllEntries() {
		if e.Message == "nutrition: diet type fallback" && e.Data["requested"] == "carnivore" {
			fallback = true
		}
	}
	if !fallback {
		t.Error("expected diet type fallback to be logged")
	}
}

func TestHandlePutEmptyDietIsBalanced(t *testing.T) {
	h, _, ctx := setup(t)

	w := putProfile(t, h, ctx, nutrition.UserProfile{
		Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male",
		ActivityLevel: "moderate", Goal: "maintain",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp UpdateProfileResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Profile.DietType != nutrition.DietBalanced || resp.Profile.DietTypeApplied != nutrition.DietBalanced {
		t.Errorf("expected balanced/balanced, got %s/%s", resp.Profile.DietType, resp.Profile.DietTypeApplied)
	}
}

func TestHandlePutInvalid(t *testing.T) {
	h, _, ctx := setup(t)

	cases := []nutrition.UserProfile{
		{Age: 0, WeightKg: 80, HeightCm: 180, Sex: "male", ActivityLevel: "moderate", Goal: "maintain"},
		{Age: 30, WeightKg: -1, HeightCm: 180, Sex: "male", ActivityLevel: "moderate", Goal: "maintain"},
		{Age: 25, WeightKg: 70, HeightCm: 175, Sex: "other", ActivityLevel: "moderate", Goal: "maintain"},
		{Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male", ActivityLevel: "extreme", Goal: "maintain"},
		{Age: 25, WeightKg: 70, HeightCm: 175, Sex: "male", ActivityLevel: "moderate", Goal: "bulk"},
	}
	for _, c := range cases {
		if w := putProfile(t, h, ctx, c); w.Code != http.StatusBadRequest {
			t.Errorf("%+v: expected status 400, got %d", c, w.Code)
		}
	}
}

func TestHandleUnauthorized(t *testing.T) {
	h, _, _ := setup(t)

	w := httptest.NewRecorder()
	h.HandleGet(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func mustParse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid: %v", err)
	}
	return id
}
