package users

import "time"

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	Phone     string
	IsActive  bool
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput carries the fields required to provision an account.
type CreateUserInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
	Roles    []string
}

// UpdateUserInput carries the mutable profile fields.
type UpdateUserInput struct {
	Name     string
	Phone    string
	IsActive bool
}
