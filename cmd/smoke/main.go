package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	testDate   string
	createdIDs = make(map[string]string) // track created resources for cleanup
)

func main() {
	fmt.Println("=== FitHub E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	testDate = time.Now().Format(time.DateOnly)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Register", testRegister},
		{"Put Profile", testPutProfile},
		{"Get Goals", testGetGoals},
		{"Create Nutrition Log", testCreateLog},
		{"Nutrition Summary", testSummary},
		{"Create Workout", testCreateWorkout},
		{"Leaderboard", testLeaderboard},
		{"Create Post", testCreatePost},
		{"Like Post", testLikePost},
		{"Create Report (CSV)", testCreateReport},
		{"Unread Notifications", testUnreadCount},
		{"Delete Post", testDeletePost},
		{"Delete Workout", testDeleteWorkout},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	_, err := call("GET", "/healthz", nil, http.StatusOK, nil)
	return err
}

// testRegister creates a throwaway account unless SMOKE_TOKEN is set.
func testRegister() error {
	if token != "" {
		return nil
	}

	payload := map[string]interface{}{
		"email":    "smoke-" + uuid.NewString()[:8] + "@example.com",
		"password": "smoke-password",
		"name":     "Smoke Test",
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if _, err := call("POST", "/v1/auth/register", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.AccessToken == "" {
		return fmt.Errorf("empty access_token")
	}
	token = result.AccessToken
	return nil
}

func testPutProfile() error {
	payload := map[string]interface{}{
		"age":            30,
		"weight_kg":      72.5,
		"height_cm":      178,
		"sex":            "male",
		"activity_level": "moderate",
		"goal":           "maintain",
		"diet_type":      "balanced",
	}
	var result struct {
		Goals struct {
			Calories int `json:"calories"`
		} `json:"goals"`
	}
	if _, err := call("PUT", "/v1/profile", payload, http.StatusOK, &result); err != nil {
		return err
	}
	if result.Goals.Calories <= 0 {
		return fmt.Errorf("expected computed calories, got %d", result.Goals.Calories)
	}
	return nil
}

func testGetGoals() error {
	var result struct {
		IsDefault bool `json:"is_default"`
		Goals     struct {
			Source string `json:"source"`
		} `json:"goals"`
	}
	if _, err := call("GET", "/v1/nutrition/goals", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.IsDefault || result.Goals.Source != "computed" {
		return fmt.Errorf("expected computed goals, got default=%t source=%q", result.IsDefault, result.Goals.Source)
	}
	return nil
}

func testCreateLog() error {
	payload := map[string]interface{}{
		"date":      testDate,
		"meal_type": "breakfast",
		"food":      "Oatmeal",
		"calories":  350,
		"protein":   12,
		"carbs":     60,
		"fat":       6,
	}
	var result struct {
		ID string `json:"id"`
	}
	if _, err := call("POST", "/v1/nutrition/logs", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["log"] = result.ID
	return nil
}

func testSummary() error {
	var result struct {
		Totals struct {
			Calories int `json:"calories"`
		} `json:"totals"`
	}
	if _, err := call("GET", "/v1/nutrition/summary?date="+testDate, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.Totals.Calories < 350 {
		return fmt.Errorf("expected at least 350 kcal logged, got %d", result.Totals.Calories)
	}
	return nil
}

func testCreateWorkout() error {
	payload := map[string]interface{}{
		"date":          testDate,
		"type":          "run",
		"duration_min":  30,
		"calories_kcal": 320,
		"distance_km":   5.2,
	}
	var result struct {
		ID string `json:"id"`
	}
	if _, err := call("POST", "/v1/workouts", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["workout"] = result.ID
	return nil
}

func testLeaderboard() error {
	var result struct {
		Entries []json.RawMessage `json:"entries"`
	}
	path := fmt.Sprintf("/v1/leaderboard?from=%s&to=%s&limit=5", testDate, testDate)
	if _, err := call("GET", path, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if len(result.Entries) == 0 {
		return fmt.Errorf("leaderboard is empty")
	}
	return nil
}

func testCreatePost() error {
	payload := map[string]interface{}{
		"body":       "Smoke test run",
		"workout_id": createdIDs["workout"],
	}
	var result struct {
		ID string `json:"id"`
	}
	if _, err := call("POST", "/v1/community/posts", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["post"] = result.ID
	return nil
}

func testLikePost() error {
	var result struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"like_count"`
	}
	if _, err := call("POST", "/v1/community/posts/"+createdIDs["post"]+"/like", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if !result.Liked || result.LikeCount != 1 {
		return fmt.Errorf("unexpected like state liked=%t count=%d", result.Liked, result.LikeCount)
	}
	return nil
}

// testCreateReport accepts both delivery modes: archived (201) or streamed (200).
func testCreateReport() error {
	from := time.Now().AddDate(0, 0, -6).Format(time.DateOnly)
	payload := map[string]interface{}{
		"from":   from,
		"to":     testDate,
		"format": "csv",
	}

	resp, err := call("POST", "/v1/reports", payload, 0, nil)
	if err != nil {
		return err
	}
	switch resp.status {
	case http.StatusCreated:
		var result struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(resp.body, &result); err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
		if result.URL == "" {
			return fmt.Errorf("archived report without url")
		}
	case http.StatusOK:
		if !bytes.HasPrefix(resp.body, []byte("date,")) {
			return fmt.Errorf("unexpected csv header: %.40q", resp.body)
		}
	default:
		return fmt.Errorf("status=%d body=%s", resp.status, string(resp.body))
	}
	return nil
}

func testUnreadCount() error {
	var result struct {
		Unread int `json:"unread"`
	}
	if _, err := call("GET", "/v1/notifications/unread-count", nil, http.StatusOK, &result); err != nil {
		return err
	}
	// profile update notifies about recomputed goals
	if result.Unread == 0 {
		return fmt.Errorf("expected at least one unread notification")
	}
	return nil
}

func testDeletePost() error {
	_, err := call("DELETE", "/v1/community/posts/"+createdIDs["post"], nil, http.StatusNoContent, nil)
	return err
}

func testDeleteWorkout() error {
	_, err := call("DELETE", "/v1/workouts/"+createdIDs["workout"], nil, http.StatusNoContent, nil)
	return err
}

type response struct {
	status int
	body   []byte
}

// call sends payload as JSON. A non-zero want status is enforced and, when
// out is set, the body is decoded into it.
func call(method, path string, payload interface{}, want int, out interface{}) (*response, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if want != 0 && resp.StatusCode != want {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("decode failed: %w", err)
		}
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
