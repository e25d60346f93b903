package models

import "time"

// UserRole represents the available application roles.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RolePM         UserRole = "PM"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleLead       UserRole = "LEAD"
	// RoleWorker exists only on employee records; workers have no app access.
	RoleWorker UserRole = "WORKER"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Identity describes an authenticated actor for permission and approval
// checks. AssignedProjectIDs is resolved from project assignments and is only
// consulted for assigned-scope roles.
type Identity struct {
	UserID             string   `json:"user_id"`
	Role               UserRole `json:"role"`
	AssignedProjectIDs []string `json:"assigned_project_ids,omitempty"`
}
