package nutrition

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceProfile() UserProfile {
	return UserProfile{
		Age:           25,
		WeightKg:      70,
		HeightCm:      175,
		Sex:           SexMale,
		ActivityLevel: "moderate",
		Goal:          GoalMaintain,
		DietType:      DietBalanced,
	}
}

func TestComputeGoals_ReferenceMale(t *testing.T) {
	// BMR = 88.362 + 13.397*70 + 4.799*175 - 5.677*25 = 1724.052
	// TDEE = 1724.052 * 1.55 = 2672.28 -> 2672
	goals, err := ComputeGoals(referenceProfile())
	require.NoError(t, err)

	assert.Equal(t, 2672, goals.Calories)
	assert.Equal(t, 100, goals.ProteinG)
	assert.Equal(t, 367, goals.CarbsG)
	assert.Equal(t, 89, goals.FatG)
	assert.Equal(t, 25, goals.FiberG)
	assert.Equal(t, 2.5, goals.WaterL)
	assert.Equal(t, DietBalanced, goals.DietTypeApplied)
}

func TestComputeGoals_Female(t *testing.T) {
	p := UserProfile{
		Age:           30,
		WeightKg:      60,
		HeightCm:      165,
		Sex:           SexFemale,
		ActivityLevel: "light",
		Goal:          GoalLose,
		DietType:      DietVegan,
	}

	goals, err := ComputeGoals(p)
	require.NoError(t, err)

	bmr := 447.593 + 9.247*60 + 3.098*165 - 4.330*30
	want := int(math.Round(bmr * 1.375 * 0.85))
	assert.Equal(t, want, goals.Calories)
	assert.Equal(t, int(math.Round(float64(want)*0.15/4)), goals.ProteinG)
	assert.Equal(t, int(math.Round(float64(want)*0.65/4)), goals.CarbsG)
	assert.Equal(t, int(math.Round(float64(want)*0.20/9)), goals.FatG)
	assert.Equal(t, 21, goals.FiberG)
	assert.Equal(t, 2.1, goals.WaterL)
}

func TestComputeGoals_GramsUseRoundedCalories(t *testing.T) {
	p := referenceProfile()
	p.DietType = DietHighProtein

	goals, err := ComputeGoals(p)
	require.NoError(t, err)

	cal := float64(goals.Calories)
	assert.Equal(t, int(math.Round(cal*0.25/4)), goals.ProteinG)
	assert.Equal(t, int(math.Round(cal*0.45/4)), goals.CarbsG)
	assert.Equal(t, int(math.Round(cal*0.30/9)), goals.FatG)
}

func TestComputeGoals_DietSplits(t *testing.T) {
	tests := []struct {
		diet                  string
		protein, carbs, fat   float64
		expectedDietTypeLabel string
	}{
		{DietBalanced, 0.15, 0.55, 0.30, DietBalanced},
		{DietVegetarian, 0.15, 0.60, 0.25, DietVegetarian},
		{DietVegan, 0.15, 0.65, 0.20, DietVegan},
		{DietHighProtein, 0.25, 0.45, 0.30, DietHighProtein},
		{DietEndurance, 0.12, 0.65, 0.23, DietEndurance},
		{"", 0.15, 0.55, 0.30, DietBalanced},
		{"keto", 0.15, 0.55, 0.30, DietBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.diet, func(t *testing.T) {
			p := referenceProfile()
			p.DietType = tt.diet

			goals, err := ComputeGoals(p)
			require.NoError(t, err)

			cal := float64(goals.Calories)
			assert.Equal(t, int(math.Round(cal*tt.protein/4)), goals.ProteinG)
			assert.Equal(t, int(math.Round(cal*tt.carbs/4)), goals.CarbsG)
			assert.Equal(t, int(math.Round(cal*tt.fat/9)), goals.FatG)
			assert.Equal(t, tt.expectedDietTypeLabel, goals.DietTypeApplied)
		})
	}
}

func TestComputeGoals_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *UserProfile)
	}{
		{"negative weight", func(p *UserProfile) { p.WeightKg = -5 }},
		{"zero weight", func(p *UserProfile) { p.WeightKg = 0 }},
		{"zero age", func(p *UserProfile) { p.Age = 0 }},
		{"negative height", func(p *UserProfile) { p.HeightCm = -1 }},
		{"nan height", func(p *UserProfile) { p.HeightCm = math.NaN() }},
		{"infinite weight", func(p *UserProfile) { p.WeightKg = math.Inf(1) }},
		{"unknown sex", func(p *UserProfile) { p.Sex = "other" }},
		{"unknown activity", func(p *UserProfile) { p.ActivityLevel = "extreme" }},
		{"unknown goal", func(p *UserProfile) { p.Goal = "bulk" }},
		{"empty goal", func(p *UserProfile) { p.Goal = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := referenceProfile()
			tt.mutate(&p)

			goals, err := ComputeGoals(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, Goals{}, goals)
		})
	}
}

func TestComputeGoals_Deterministic(t *testing.T) {
	first, err := ComputeGoals(referenceProfile())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		next, err := ComputeGoals(referenceProfile())
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestComputeGoals_GoalOrdering(t *testing.T) {
	for _, sex := range []string{SexMale, SexFemale} {
		p := referenceProfile()
		p.Sex = sex

		p.Goal = GoalLose
		lose, err := ComputeGoals(p)
		require.NoError(t, err)

		p.Goal = GoalMaintain
		maintain, err := ComputeGoals(p)
		require.NoError(t, err)

		p.Goal = GoalGain
		gain, err := ComputeGoals(p)
		require.NoError(t, err)

		assert.Less(t, lose.Calories, maintain.Calories)
		assert.Less(t, maintain.Calories, gain.Calories)
	}
}

func TestComputeGoals_MonotonicInWeight(t *testing.T) {
	for _, sex := range []string{SexMale, SexFemale} {
		p := referenceProfile()
		p.Sex = sex

		prev := math.MinInt
		for w := 40.0; w <= 160; w += 0.5 {
			p.WeightKg = w
			goals, err := ComputeGoals(p)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, goals.Calories, prev, "sex=%s weight=%.1f", sex, w)
			prev = goals.Calories
		}
	}
}

func TestComputeGoals_MacroConsistency(t *testing.T) {
	activities := []string{"sedentary", "light", "moderate", "active", "very_active"}
	diets := []string{DietBalanced, DietVegetarian, DietVegan, DietHighProtein, DietEndurance}
	goals := []string{GoalLose, GoalMaintain, GoalGain}

	for _, sex := range []string{SexMale, SexFemale} {
		for _, activity := range activities {
			for _, diet := range diets {
				for _, goal := range goals {
					for _, weight := range []float64{45.3, 68, 91.7, 130} {
						p := UserProfile{
							Age:           37,
							WeightKg:      weight,
							HeightCm:      171.5,
							Sex:           sex,
							ActivityLevel: activity,
							Goal:          goal,
							DietType:      diet,
						}
						g, err := ComputeGoals(p)
						require.NoError(t, err)

						fromMacros := g.ProteinG*4 + g.CarbsG*4 + g.FatG*9
						diff := fromMacros - g.Calories
						if diff < 0 {
							diff = -diff
						}
						assert.LessOrEqual(t, diff, 10, "profile=%+v goals=%+v", p, g)
					}
				}
			}
		}
	}
}

func TestComputeGoals_TinyInputsNotClamped(t *testing.T) {
	p := UserProfile{
		Age:           1,
		WeightKg:      0.1,
		HeightCm:      1,
		Sex:           SexMale,
		ActivityLevel: "sedentary",
		Goal:          GoalMaintain,
		DietType:      DietBalanced,
	}

	goals, err := ComputeGoals(p)
	require.NoError(t, err)

	bmr := 88.362 + 13.397*0.1 + 4.799*1 - 5.677*1
	assert.Equal(t, int(math.Round(bmr*1.2)), goals.Calories)
	assert.Equal(t, 0, goals.FiberG)
	assert.Equal(t, 0.0, goals.WaterL)
}

func TestComputeGoals_NegativeBMRNotClamped(t *testing.T) {
	p := UserProfile{
		Age:           120,
		WeightKg:      0.5,
		HeightCm:      10,
		Sex:           SexMale,
		ActivityLevel: "sedentary",
		Goal:          GoalMaintain,
	}

	require.Less(t, BMR(p.Sex, p.WeightKg, p.HeightCm, p.Age), 0.0)

	goals, err := ComputeGoals(p)
	require.NoError(t, err)
	assert.Less(t, goals.Calories, 0)
}
