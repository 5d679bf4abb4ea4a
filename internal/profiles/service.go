package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/fithub/internal/nutrition"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("profile not found")
)

// GoalsRecomputer пересчитывает и сохраняет цели питания по профилю
type GoalsRecomputer interface {
	Recompute(ctx context.Context, profile storage.BodyProfile) (nutrition.GoalsDTO, error)
}

// Service содержит бизнес-логику профилей
type Service struct {
	profiles storage.ProfilesStorage
	goals    GoalsRecomputer
}

// NewService создаёт новый сервис
func NewService(profiles storage.ProfilesStorage, goals GoalsRecomputer) *Service {
	return &Service{profiles: profiles, goals: goals}
}

// GetProfile возвращает профиль текущего пользователя
func (s *Service) GetProfile(ctx context.Context) (*ProfileDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}

	dto := toDTO(*profile)
	return &dto, nil
}

// UpdateProfile сохраняет профиль и пересчитывает цели питания.
// Цели пересчитываются при каждом сохранении, даже если ввод не изменился.
func (s *Service) UpdateProfile(ctx context.Context, req nutrition.UserProfile) (*UpdateProfileResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	req.Sex = strings.TrimSpace(req.Sex)
	req.ActivityLevel = strings.TrimSpace(req.ActivityLevel)
	req.Goal = strings.TrimSpace(req.Goal)
	// неизвестный тип диеты сохраняется как есть, расчёт берёт balanced
	req.DietType = strings.ToLower(strings.TrimSpace(req.DietType))
	if req.DietType == "" {
		req.DietType = nutrition.DietBalanced
	}

	if err := nutrition.ValidateProfile(req); err != nil {
		return nil, err
	}

	stored, err := s.profiles.UpsertProfile(ctx, storage.BodyProfile{
		UserID:        userID,
		Age:           req.Age,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		Sex:           req.Sex,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
		DietType:      req.DietType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	goals, err := s.goals.Recompute(ctx, *stored)
	if err != nil {
		return nil, err
	}

	return &UpdateProfileResponse{Profile: toDTO(*stored), Goals: goals}, nil
}

func currentUser(ctx context.Context) (uuid.UUID, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
