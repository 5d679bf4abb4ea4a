package profiles

import (
	"time"

	"github.com/fdg312/fithub/internal/nutrition"
	"github.com/fdg312/fithub/internal/storage"
)

// ProfileDTO представляет биометрический профиль для API
type ProfileDTO struct {
	Age           int     `json:"age"`
	WeightKg      float64 `json:"weight_kg"`
	HeightCm      float64 `json:"height_cm"`
	Sex           string  `json:"sex"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
	DietType      string  `json:"diet_type"`
	// DietTypeApplied is the macro split used for goals.
	DietTypeApplied string    `json:"diet_type_applied"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateProfileResponse возвращает профиль вместе с пересчитанными целями
type UpdateProfileResponse struct {
	Profile ProfileDTO         `json:"profile"`
	Goals   nutrition.GoalsDTO `json:"goals"`
}

func toDTO(p storage.BodyProfile) ProfileDTO {
	return ProfileDTO{
		Age:             p.Age,
		WeightKg:        p.WeightKg,
		HeightCm:        p.HeightCm,
		Sex:             p.Sex,
		ActivityLevel:   p.ActivityLevel,
		Goal:            p.Goal,
		DietType:        p.DietType,
		DietTypeApplied: nutrition.ResolveDietType(p.DietType),
		UpdatedAt:       p.UpdatedAt,
	}
}
