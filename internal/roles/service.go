package roles

import (
	"context"
	"sort"

	"github.com/estatedesk/estatedesk/internal/rbac"
)

// RoleDetail joins a role with its current permission set.
type RoleDetail struct {
	Role        rbac.Role
	Permissions []string
}

// PermissionLister exposes the per-role permission lookup the detail
// view needs on top of the shared rbac queries.
type PermissionLister interface {
	PermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
}

// Service handles role management on top of the shared rbac service.
type Service struct {
	rbac      *rbac.Service
	rolePerms PermissionLister
}

// NewService builds Service instance.
func NewService(rbacService *rbac.Service, rolePerms PermissionLister) *Service {
	return &Service{rbac: rbacService, rolePerms: rolePerms}
}

// ListRoles returns all roles with their permission sets.
func (s *Service) ListRoles(ctx context.Context) ([]RoleDetail, error) {
	roles, err := s.rbac.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]RoleDetail, 0, len(roles))
	for _, role := range roles {
		perms, err := s.rolePerms.PermissionsForRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		sort.Strings(perms)
		details = append(details, RoleDetail{Role: role, Permissions: perms})
	}
	return details, nil
}

// GetRole returns a single role with its permission set.
func (s *Service) GetRole(ctx context.Context, name, guard string) (RoleDetail, error) {
	role, err := s.rbac.GetRoleByName(ctx, name, guard)
	if err != nil {
		return RoleDetail{}, err
	}
	perms, err := s.rolePerms.PermissionsForRole(ctx, role.ID)
	if err != nil {
		return RoleDetail{}, err
	}
	sort.Strings(perms)
	return RoleDetail{Role: role, Permissions: perms}, nil
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return s.rbac.ListPermissions(ctx)
}

// ReplacePermissions swaps a role's permission set for the given names.
func (s *Service) ReplacePermissions(ctx context.Context, roleID int64, names []string) error {
	return s.rbac.SetRolePermissions(ctx, roleID, names)
}
