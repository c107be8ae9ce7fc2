package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

var (
	// ErrDuplicateEmail is returned when an account already uses the email.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrUnknownRole is returned when a role name does not exist in the catalog.
	ErrUnknownRole = errors.New("unknown role")
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, pagination shared.Pagination) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, input CreateUserInput, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error)
	DeactivateUser(ctx context.Context, id int64) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
	rbac *rbac.Service
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rbacService *rbac.Service) *Service {
	return &Service{repo: repo, rbac: rbacService}
}

// ListUsers returns a page of users with the total count.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	users, total, err := s.repo.ListUsers(ctx, shared.NewPagination(page, perPage, 0))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// GetUser returns a single user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser provisions an account and assigns the requested roles.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	roleIDs := make([]int64, 0, len(input.Roles))
	for _, name := range input.Roles {
		role, err := s.rbac.GetRoleByName(ctx, name, shared.GuardWeb)
		if err != nil {
			if errors.Is(err, rbac.ErrNotFound) {
				return User{}, fmt.Errorf("%w: %s", ErrUnknownRole, name)
			}
			return User{}, err
		}
		roleIDs = append(roleIDs, role.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, input, string(hash))
	if err != nil {
		return User{}, err
	}

	for _, roleID := range roleIDs {
		if err := s.rbac.AssignRole(ctx, user.ID, roleID); err != nil {
			return User{}, fmt.Errorf("assign role: %w", err)
		}
	}
	user.Roles = input.Roles
	return user, nil
}

// UpdateUser changes the mutable profile fields.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	return s.repo.UpdateUser(ctx, id, input)
}

// DeactivateUser disables an account without destroying its history.
func (s *Service) DeactivateUser(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateUser(ctx, id); err != nil {
		return err
	}
	s.rbac.InvalidateUser(ctx, id)
	return nil
}

// AssignRole grants a named role to a user.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) error {
	role, err := s.rbac.GetRoleByName(ctx, roleName, shared.GuardWeb)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
		}
		return err
	}
	return s.rbac.AssignRole(ctx, userID, role.ID)
}

// RemoveRole revokes a named role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID int64, roleName string) error {
	role, err := s.rbac.GetRoleByName(ctx, roleName, shared.GuardWeb)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
		}
		return err
	}
	return s.rbac.RemoveRole(ctx, userID, role.ID)
}
