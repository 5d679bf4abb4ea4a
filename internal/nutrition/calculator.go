package nutrition

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a profile value is out of domain.
var ErrInvalidInput = errors.New("invalid input")

const (
	SexMale   = "male"
	SexFemale = "female"

	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"

	DietBalanced    = "balanced"
	DietVegetarian  = "vegetarian"
	DietVegan       = "vegan"
	DietHighProtein = "high_protein"
	DietEndurance   = "endurance"
)

// UserProfile is the biometric snapshot the goals are derived from.
type UserProfile struct {
	Age           int     `json:"age"`
	WeightKg      float64 `json:"weight_kg"`
	HeightCm      float64 `json:"height_cm"`
	Sex           string  `json:"sex"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
	DietType      string  `json:"diet_type"`
}

// Goals holds daily calorie and macronutrient targets.
type Goals struct {
	Calories int     `json:"calories"`
	ProteinG int     `json:"protein"`
	CarbsG   int     `json:"carbs"`
	FatG     int     `json:"fat"`
	FiberG   int     `json:"fiber"`
	WaterL   float64 `json:"water"`

	// DietTypeApplied is the split actually used; differs from the
	// requested diet type when it was empty or unknown.
	DietTypeApplied string `json:"diet_type_applied"`
}

type macroSplit struct {
	protein float64
	carbs   float64
	fat     float64
}

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

var goalFactors = map[string]float64{
	GoalLose:     0.85,
	GoalMaintain: 1.0,
	GoalGain:     1.15,
}

var macroSplits = map[string]macroSplit{
	DietBalanced:    {protein: 0.15, carbs: 0.55, fat: 0.30},
	DietVegetarian:  {protein: 0.15, carbs: 0.60, fat: 0.25},
	DietVegan:       {protein: 0.15, carbs: 0.65, fat: 0.20},
	DietHighProtein: {protein: 0.25, carbs: 0.45, fat: 0.30},
	DietEndurance:   {protein: 0.12, carbs: 0.65, fat: 0.23},
}

// ComputeGoals derives daily targets from a profile using the revised
// Harris-Benedict BMR, an activity multiplier and a goal adjustment.
// Calories are rounded before grams are derived from them.
func ComputeGoals(p UserProfile) (Goals, error) {
	if err := ValidateProfile(p); err != nil {
		return Goals{}, err
	}

	tdee := BMR(p.Sex, p.WeightKg, p.HeightCm, p.Age) * activityMultipliers[p.ActivityLevel]
	calories := math.Round(tdee * goalFactors[p.Goal])

	diet := ResolveDietType(p.DietType)
	split := macroSplits[diet]

	return Goals{
		Calories:        int(calories),
		ProteinG:        int(math.Round(calories * split.protein / 4)),
		CarbsG:          int(math.Round(calories * split.carbs / 4)),
		FatG:            int(math.Round(calories * split.fat / 9)),
		FiberG:          int(math.Round(p.WeightKg * 0.35)),
		WaterL:          math.Round(p.WeightKg*0.035*10) / 10,
		DietTypeApplied: diet,
	}, nil
}

// BMR returns the basal metabolic rate in kcal/day. The result is not
// clamped and may be negative for extreme inputs.
func BMR(sex string, weightKg, heightCm float64, age int) float64 {
	if sex == SexFemale {
		return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age)
	}
	return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age)
}

// ValidateProfile checks numeric ranges and enum membership. Diet type is
// not validated: unknown values fall back to the balanced split.
func ValidateProfile(p UserProfile) error {
	if p.Age <= 0 {
		return fmt.Errorf("%w: age must be greater than 0", ErrInvalidInput)
	}
	if !positiveFinite(p.WeightKg) {
		return fmt.Errorf("%w: weight_kg must be greater than 0", ErrInvalidInput)
	}
	if !positiveFinite(p.HeightCm) {
		return fmt.Errorf("%w: height_cm must be greater than 0", ErrInvalidInput)
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return fmt.Errorf("%w: sex must be one of male, female", ErrInvalidInput)
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		return fmt.Errorf("%w: activity_level must be one of sedentary, light, moderate, active, very_active", ErrInvalidInput)
	}
	if _, ok := goalFactors[p.Goal]; !ok {
		return fmt.Errorf("%w: goal must be one of lose, maintain, gain", ErrInvalidInput)
	}
	return nil
}

// ResolveDietType maps an unknown or empty diet type to balanced.
func ResolveDietType(dietType string) string {
	if _, ok := macroSplits[dietType]; ok {
		return dietType
	}
	return DietBalanced
}

// IsKnownDietType reports whether dietType has its own macro split.
func IsKnownDietType(dietType string) bool {
	_, ok := macroSplits[dietType]
	return ok
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
