package memory

import (
	"github.com/fdg312/fithub/internal/storage"
)

// MemoryStorage in-memory реализация storage.Storage
type MemoryStorage struct {
	users          *usersStorage
	profiles       *profilesStorage
	nutritionGoals *nutritionGoalsStorage
	nutritionLogs  *nutritionLogsStorage
	workouts       *workoutsStorage
	equipment      *equipmentStorage
	community      *communityStorage
	notifications  *notificationsStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	users := newUsersStorage()
	return &MemoryStorage{
		users:          users,
		profiles:       newProfilesStorage(),
		nutritionGoals: newNutritionGoalsStorage(),
		nutritionLogs:  newNutritionLogsStorage(),
		workouts:       newWorkoutsStorage(users),
		equipment:      newEquipmentStorage(),
		community:      newCommunityStorage(),
		notifications:  newNotificationsStorage(),
	}
}

func (m *MemoryStorage) Users() storage.UsersStorage                   { return m.users }
func (m *MemoryStorage) Profiles() storage.ProfilesStorage             { return m.profiles }
func (m *MemoryStorage) NutritionGoals() storage.NutritionGoalsStorage { return m.nutritionGoals }
func (m *MemoryStorage) NutritionLogs() storage.NutritionLogsStorage   { return m.nutritionLogs }
func (m *MemoryStorage) Workouts() storage.WorkoutsStorage             { return m.workouts }
func (m *MemoryStorage) Equipment() storage.EquipmentStorage           { return m.equipment }
func (m *MemoryStorage) Community() storage.CommunityStorage           { return m.community }
func (m *MemoryStorage) Notifications() storage.NotificationsStorage   { return m.notifications }

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
