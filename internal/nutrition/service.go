package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/fithub/internal/notifications"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProfileNotFound = errors.New("profile not found")
	ErrLogNotFound     = errors.New("log not found")
)

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

// Service handles nutrition goals and food logging.
type Service struct {
	profiles storage.ProfilesStorage
	goals    storage.NutritionGoalsStorage
	logs     storage.NutritionLogsStorage
	notifier Notifier
}

// NewService creates a new nutrition service. notifier may be nil.
func NewService(profiles storage.ProfilesStorage, goals storage.NutritionGoalsStorage, logs storage.NutritionLogsStorage, notifier Notifier) *Service {
	return &Service{
		profiles: profiles,
		goals:    goals,
		logs:     logs,
		notifier: notifier,
	}
}

// Preview computes goals for an arbitrary profile without storing anything.
func (s *Service) Preview(p UserProfile) (Goals, error) {
	return ComputeGoals(p)
}

// ComputeFromProfile recomputes goals from the caller's stored profile.
func (s *Service) ComputeFromProfile(ctx context.Context) (GoalsDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return GoalsDTO{}, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return GoalsDTO{}, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return GoalsDTO{}, ErrProfileNotFound
	}

	return s.Recompute(ctx, *profile)
}

// Recompute derives goals from profile, stores them as computed and
// notifies the owner.
func (s *Service) Recompute(ctx context.Context, profile storage.BodyProfile) (GoalsDTO, error) {
	goals, err := ComputeGoals(FromBodyProfile(profile))
	if err != nil {
		return GoalsDTO{}, err
	}

	stored, err := s.goals.UpsertGoals(ctx, storage.NutritionGoal{
		UserID:   profile.UserID,
		Calories: goals.Calories,
		ProteinG: goals.ProteinG,
		CarbsG:   goals.CarbsG,
		FatG:     goals.FatG,
		FiberG:   goals.FiberG,
		WaterL:   goals.WaterL,
		Source:   SourceComputed,
	})
	if err != nil {
		return GoalsDTO{}, fmt.Errorf("failed to upsert nutrition goals: %w", err)
	}

	if profile.DietType != "" && goals.DietTypeApplied != profile.DietType {
		log.WithFields(log.Fields{
			"user_id":   profile.UserID,
			"requested": profile.DietType,
			"applied":   goals.DietTypeApplied,
		}).Info("nutrition: diet type fallback")
	}

	s.notify(ctx, profile.UserID, "Nutrition goals updated",
		fmt.Sprintf("Daily target: %d kcal, protein %d g, carbs %d g, fat %d g.",
			goals.Calories, goals.ProteinG, goals.CarbsG, goals.FatG))

	return toGoalsDTO(stored), nil
}

// GetOrDefault returns stored goals or defaults if none were set.
func (s *Service) GetOrDefault(ctx context.Context) (GoalsDTO, bool, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return GoalsDTO{}, false, err
	}
	return s.goalsOrDefault(ctx, userID)
}

func (s *Service) goalsOrDefault(ctx context.Context, userID uuid.UUID) (GoalsDTO, bool, error) {
	goal, err := s.goals.GetGoals(ctx, userID)
	if err != nil {
		return GoalsDTO{}, false, fmt.Errorf("failed to get nutrition goals: %w", err)
	}
	if goal == nil {
		return DefaultGoals(), true, nil
	}
	return toGoalsDTO(goal), false, nil
}

// SetManual overrides the computed goals with user supplied values.
func (s *Service) SetManual(ctx context.Context, req UpsertGoalsRequest) (GoalsDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return GoalsDTO{}, err
	}
	if err := req.Validate(); err != nil {
		return GoalsDTO{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	stored, err := s.goals.UpsertGoals(ctx, storage.NutritionGoal{
		UserID:   userID,
		Calories: req.Calories,
		ProteinG: req.Protein,
		CarbsG:   req.Carbs,
		FatG:     req.Fat,
		FiberG:   req.Fiber,
		WaterL:   req.Water,
		Source:   SourceManual,
	})
	if err != nil {
		return GoalsDTO{}, fmt.Errorf("failed to upsert nutrition goals: %w", err)
	}
	return toGoalsDTO(stored), nil
}

func (s *Service) CreateLog(ctx context.Context, req CreateLogRequest) (LogDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return LogDTO{}, err
	}
	if err := req.Validate(); err != nil {
		return LogDTO{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	entry := &storage.NutritionLog{
		UserID:   userID,
		Date:     req.Date,
		MealType: req.MealType,
		Food:     strings.TrimSpace(req.Food),
		Calories: req.Calories,
		ProteinG: req.Protein,
		CarbsG:   req.Carbs,
		FatG:     req.Fat,
	}
	if err := s.logs.CreateLog(ctx, entry); err != nil {
		return LogDTO{}, err
	}
	return toLogDTO(*entry), nil
}

func (s *Service) ListLogs(ctx context.Context, from, to string) ([]LogDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	entries, err := s.logs.ListLogs(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	result := make([]LogDTO, 0, len(entries))
	for _, e := range entries {
		result = append(result, toLogDTO(e))
	}
	return result, nil
}

func (s *Service) DeleteLog(ctx context.Context, id uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.logs.DeleteLog(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrLogNotFound
		}
		return err
	}
	return nil
}

// Summary totals one day of food logs against the current goals.
func (s *Service) Summary(ctx context.Context, date string) (SummaryDTO, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return SummaryDTO{}, err
	}
	if !isDate(date) {
		return SummaryDTO{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}

	entries, err := s.logs.ListLogs(ctx, userID, date, date)
	if err != nil {
		return SummaryDTO{}, err
	}
	goals, isDefault, err := s.goalsOrDefault(ctx, userID)
	if err != nil {
		return SummaryDTO{}, err
	}

	var totals Totals
	for _, e := range entries {
		totals.Calories += e.Calories
		totals.Protein += e.ProteinG
		totals.Carbs += e.CarbsG
		totals.Fat += e.FatG
	}

	return SummaryDTO{
		Date:           date,
		Entries:        len(entries),
		Totals:         totals,
		Goals:          goals,
		IsDefaultGoals: isDefault,
		Percent: Percent{
			Calories: percentOf(float64(totals.Calories), goals.Calories),
			Protein:  percentOf(totals.Protein, goals.Protein),
			Carbs:    percentOf(totals.Carbs, goals.Carbs),
			Fat:      percentOf(totals.Fat, goals.Fat),
		},
	}, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, notifications.KindGoalsUpdated, title, body); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("nutrition: notify failed")
	}
}

func validateRange(from, to string) error {
	if from != "" && !isDate(from) {
		return fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if to != "" && !isDate(to) {
		return fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	return nil
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
