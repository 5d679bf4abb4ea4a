package admin

import "github.com/fdg312/fithub/internal/auth"

const (
	defaultUsersLimit = 50
	maxUsersLimit     = 200
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type ListUsersResponse struct {
	Users  []auth.UserDTO `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// StatsResponse сводка для админки
type StatsResponse struct {
	Users    int `json:"users"`
	Workouts int `json:"workouts"`
	Posts    int `json:"posts"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
