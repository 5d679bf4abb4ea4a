package nutrition

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

const (
	SourceComputed = "computed"
	SourceManual   = "manual"
)

var mealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// GoalsDTO is the persisted goal set as returned by the API.
type GoalsDTO struct {
	Calories  int       `json:"calories"`
	Protein   int       `json:"protein"`
	Carbs     int       `json:"carbs"`
	Fat       int       `json:"fat"`
	Fiber     int       `json:"fiber"`
	Water     float64   `json:"water"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetGoalsResponse contains goals and a flag indicating if they are defaults.
type GetGoalsResponse struct {
	Goals     GoalsDTO `json:"goals"`
	IsDefault bool     `json:"is_default"`
}

// UpsertGoalsRequest is the request body for PUT /v1/nutrition/goals.
type UpsertGoalsRequest struct {
	Calories int     `json:"calories"`
	Protein  int     `json:"protein"`
	Carbs    int     `json:"carbs"`
	Fat      int     `json:"fat"`
	Fiber    int     `json:"fiber"`
	Water    float64 `json:"water"`
}

func (r *UpsertGoalsRequest) Validate() error {
	if r.Calories < 800 || r.Calories > 6000 {
		return fmt.Errorf("calories must be between 800 and 6000")
	}
	for name, v := range map[string]int{"protein": r.Protein, "carbs": r.Carbs, "fat": r.Fat} {
		if v < 0 || v > 600 {
			return fmt.Errorf("%s must be between 0 and 600", name)
		}
	}
	if r.Fiber < 0 || r.Fiber > 150 {
		return fmt.Errorf("fiber must be between 0 and 150")
	}
	if math.IsNaN(r.Water) || r.Water < 0 || r.Water > 10 {
		return fmt.Errorf("water must be between 0 and 10")
	}
	return nil
}

// DefaultGoals are served until the user computes or sets goals.
func DefaultGoals() GoalsDTO {
	return GoalsDTO{
		Calories:  2200,
		Protein:   120,
		Carbs:     250,
		Fat:       70,
		Fiber:     25,
		Water:     2.5,
		Source:    "default",
		UpdatedAt: time.Now().UTC(),
	}
}

func toGoalsDTO(g *storage.NutritionGoal) GoalsDTO {
	return GoalsDTO{
		Calories:  g.Calories,
		Protein:   g.ProteinG,
		Carbs:     g.CarbsG,
		Fat:       g.FatG,
		Fiber:     g.FiberG,
		Water:     g.WaterL,
		Source:    g.Source,
		UpdatedAt: g.UpdatedAt,
	}
}

// FromBodyProfile converts a stored profile into calculator input.
func FromBodyProfile(p storage.BodyProfile) UserProfile {
	return UserProfile{
		Age:           p.Age,
		WeightKg:      p.WeightKg,
		HeightCm:      p.HeightCm,
		Sex:           p.Sex,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
		DietType:      p.DietType,
	}
}

// CreateLogRequest is the request body for POST /v1/nutrition/logs.
type CreateLogRequest struct {
	Date     string  `json:"date"`
	MealType string  `json:"meal_type"`
	Food     string  `json:"food"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (r *CreateLogRequest) Validate() error {
	if !isDate(r.Date) {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if !mealTypes[r.MealType] {
		return fmt.Errorf("meal_type must be one of breakfast, lunch, dinner, snack")
	}
	food := strings.TrimSpace(r.Food)
	if food == "" || len(food) > 200 {
		return fmt.Errorf("food must be 1-200 characters")
	}
	if r.Calories < 0 || r.Calories > 10000 {
		return fmt.Errorf("calories must be between 0 and 10000")
	}
	for name, v := range map[string]float64{"protein": r.Protein, "carbs": r.Carbs, "fat": r.Fat} {
		if math.IsNaN(v) || v < 0 || v > 1000 {
			return fmt.Errorf("%s must be between 0 and 1000", name)
		}
	}
	return nil
}

type LogDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	MealType  string    `json:"meal_type"`
	Food      string    `json:"food"`
	Calories  int       `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	CreatedAt time.Time `json:"created_at"`
}

func toLogDTO(l storage.NutritionLog) LogDTO {
	return LogDTO{
		ID:        l.ID,
		Date:      l.Date,
		MealType:  l.MealType,
		Food:      l.Food,
		Calories:  l.Calories,
		Protein:   l.ProteinG,
		Carbs:     l.CarbsG,
		Fat:       l.FatG,
		CreatedAt: l.CreatedAt,
	}
}

type ListLogsResponse struct {
	Logs []LogDTO `json:"logs"`
}

// Totals are the summed intake of a day.
type Totals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Percent is intake relative to the goal, in whole percent.
type Percent struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

type SummaryDTO struct {
	Date           string   `json:"date"`
	Entries        int      `json:"entries"`
	Totals         Totals   `json:"totals"`
	Goals          GoalsDTO `json:"goals"`
	IsDefaultGoals bool     `json:"is_default_goals"`
	Percent        Percent  `json:"percent"`
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// percentOf returns round(actual*100/target), or 0 when target is 0.
func percentOf(actual float64, target int) int {
	if target == 0 {
		return 0
	}
	return int(math.Round(actual * 100 / float64(target)))
}
