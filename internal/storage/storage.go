package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Storage объединяет все хранилища приложения (memory или postgres).
type Storage interface {
	Users() UsersStorage
	Profiles() ProfilesStorage
	NutritionGoals() NutritionGoalsStorage
	NutritionLogs() NutritionLogsStorage
	Workouts() WorkoutsStorage
	Equipment() EquipmentStorage
	Community() CommunityStorage
	Notifications() NotificationsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}

// User is an account that can sign in.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string // "user" or "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UsersStorage interface {
	// CreateUser returns ErrConflict when the email is already taken.
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// BodyProfile holds the biometric fields goals are computed from.
type BodyProfile struct {
	UserID        uuid.UUID
	Age           int
	WeightKg      float64
	HeightCm      float64
	Sex           string
	ActivityLevel string
	Goal          string
	DietType      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ProfilesStorage interface {
	// GetProfile returns nil, nil when the user has no profile yet.
	GetProfile(ctx context.Context, userID uuid.UUID) (*BodyProfile, error)
	UpsertProfile(ctx context.Context, profile BodyProfile) (*BodyProfile, error)
}

// NutritionGoal is the persisted daily target set of a user.
type NutritionGoal struct {
	UserID    uuid.UUID
	Calories  int
	ProteinG  int
	CarbsG    int
	FatG      int
	FiberG    int
	WaterL    float64
	Source    string // "computed" or "manual"
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NutritionGoalsStorage interface {
	// GetGoals returns nil, nil when no goals were stored.
	GetGoals(ctx context.Context, userID uuid.UUID) (*NutritionGoal, error)
	UpsertGoals(ctx context.Context, goal NutritionGoal) (*NutritionGoal, error)
}

// NutritionLog is a single food entry.
type NutritionLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Date      string // YYYY-MM-DD
	MealType  string
	Food      string
	Calories  int
	ProteinG  float64
	CarbsG    float64
	FatG      float64
	CreatedAt time.Time
}

type NutritionLogsStorage interface {
	CreateLog(ctx context.Context, log *NutritionLog) error
	// ListLogs returns entries with from <= date <= to, oldest first.
	ListLogs(ctx context.Context, userID uuid.UUID, from, to string) ([]NutritionLog, error)
	DeleteLog(ctx context.Context, userID, id uuid.UUID) error
}

// Workout is a logged training session.
type Workout struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Date         string // YYYY-MM-DD
	Type         string
	DurationMin  int
	CaloriesKcal int
	DistanceKm   float64
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LeaderboardRow aggregates workouts of one user over a period.
type LeaderboardRow struct {
	UserID        uuid.UUID
	Name          string
	Workouts      int
	TotalMinutes  int
	TotalCalories int
}

type WorkoutsStorage interface {
	CreateWorkout(ctx context.Context, w *Workout) error
	GetWorkout(ctx context.Context, userID, id uuid.UUID) (*Workout, error)
	UpdateWorkout(ctx context.Context, w *Workout) error
	DeleteWorkout(ctx context.Context, userID, id uuid.UUID) error
	// ListWorkouts returns workouts with from <= date <= to, newest first.
	// Empty bounds are open.
	ListWorkouts(ctx context.Context, userID uuid.UUID, from, to string) ([]Workout, error)
	Leaderboard(ctx context.Context, from, to string, limit int) ([]LeaderboardRow, error)
	CountWorkouts(ctx context.Context) (int, error)
}

// Equipment is a piece of gear owned by a user.
type Equipment struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Category    string
	PurchasedOn string // YYYY-MM-DD or empty
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaintenanceTask is a recurring maintenance schedule for equipment.
type MaintenanceTask struct {
	ID           uuid.UUID
	EquipmentID  uuid.UUID
	UserID       uuid.UUID
	Title        string
	IntervalDays int
	LastDoneOn   string // YYYY-MM-DD or empty
	NextDueOn    string // YYYY-MM-DD
	NotifiedFor  string // due date a reminder was last sent for
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EquipmentStorage interface {
	CreateEquipment(ctx context.Context, e *Equipment) error
	GetEquipment(ctx context.Context, userID, id uuid.UUID) (*Equipment, error)
	ListEquipment(ctx context.Context, userID uuid.UUID) ([]Equipment, error)
	// DeleteEquipment also removes its maintenance tasks.
	DeleteEquipment(ctx context.Context, userID, id uuid.UUID) error

	CreateTask(ctx context.Context, t *MaintenanceTask) error
	GetTask(ctx context.Context, userID, id uuid.UUID) (*MaintenanceTask, error)
	UpdateTask(ctx context.Context, t *MaintenanceTask) error
	// ListTasks returns the user's tasks ordered by next due date.
	// An empty dueBefore disables the filter.
	ListTasks(ctx context.Context, userID uuid.UUID, dueBefore string) ([]MaintenanceTask, error)
	// ListDueTasks returns tasks of all users due on or before date
	// that were not yet notified for their current due date.
	ListDueTasks(ctx context.Context, date string) ([]MaintenanceTask, error)
	// MarkTaskNotified sets notified_for to dueOn only while the task is
	// still due on dueOn. It reports whether the task was updated.
	MarkTaskNotified(ctx context.Context, id uuid.UUID, dueOn string) (bool, error)
}

// Post is a community feed entry.
type Post struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	AuthorName string
	Body       string
	WorkoutID  *uuid.UUID
	LikeCount  int
	CreatedAt  time.Time
}

type CommunityStorage interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	// ListPosts returns posts newest first.
	ListPosts(ctx context.Context, limit, offset int) ([]Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	// LikePost reports whether a new like was recorded.
	LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CountPosts(ctx context.Context) (int, error)
}

// Notification is an inbox item for a user.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      string
	Title     string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

type NotificationsStorage interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}
