package rbac

import "time"

// Role represents a named, administratively assigned bundle of permissions.
type Role struct {
	ID          int64
	Name        string
	Guard       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic namespaced capability (resource.action).
type Permission struct {
	ID          int64
	Name        string
	Guard       string
	Description string
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
