package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// ErrUnknownPermission indicates a permission name absent from the catalog.
var ErrUnknownPermission = errors.New("rbac: unknown permission")

const cacheTTL = time.Hour

// RepositoryPort defines data access methods for RBAC.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetRoleByName(ctx context.Context, name, guard string) (Role, error)
	RolesForUser(ctx context.Context, userID int64) ([]Role, error)
	PermissionsForUser(ctx context.Context, userID int64) ([]string, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	UsersWithRole(ctx context.Context, roleID int64) ([]int64, error)
}

// Service answers authorization queries. Lookups are read-only; the
// role/permission catalog only changes through the explicit mutation
// methods, which invalidate the per-user permission cache.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	logger *slog.Logger
}

// NewService builds a Service. The cache client is optional; without it
// every lookup hits the repository.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// EffectivePermissions returns the deduplicated union of permissions
// granted by every role assigned to the user. A user with no roles has
// no permissions.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	if perms, ok := s.cachedPermissions(ctx, userID); ok {
		return perms, nil
	}
	perms, err := s.repo.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.storePermissions(ctx, userID, perms)
	return perms, nil
}

// Can reports whether the user holds the named permission. Unknown or
// misspelled permission names are never granted: they cannot appear in
// any user's effective set, so the check fails closed.
func (s *Service) Can(ctx context.Context, userID int64, permission string) (bool, error) {
	permission = strings.TrimSpace(strings.ToLower(permission))
	if permission == "" {
		return false, nil
	}
	perms, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if strings.ToLower(p) == permission {
			return true, nil
		}
	}
	return false, nil
}

// HasRole reports whether the user is assigned the role with the exact name.
func (s *Service) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	roles, err := s.repo.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetRoleByName fetches a role by its natural key.
func (s *Service) GetRoleByName(ctx context.Context, name, guard string) (Role, error) {
	return s.repo.GetRoleByName(ctx, name, guard)
}

// SetRolePermissions replaces the role's permission set wholesale. The
// prior set is discarded; permissions absent from names are no longer
// granted through this role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, names []string) error {
	if err := s.repo.ReplaceRolePermissions(ctx, roleID, names); err != nil {
		return err
	}
	s.invalidateRole(ctx, roleID)
	return nil
}

// AssignRole attaches a role to the user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	return nil
}

// RemoveRole detaches a role from the user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	return nil
}

// InvalidateUser drops the cached effective permissions for the user.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, permCacheKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		if s.logger != nil {
			s.logger.Warn("rbac invalidate cache", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}

func (s *Service) invalidateRole(ctx context.Context, roleID int64) {
	userIDs, err := s.repo.UsersWithRole(ctx, roleID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("rbac list role users", slog.Int64("role_id", roleID), slog.Any("error", err))
		}
		return
	}
	for _, id := range userIDs {
		s.InvalidateUser(ctx, id)
	}
}

func (s *Service) cachedPermissions(ctx context.Context, userID int64) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, permCacheKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

func (s *Service) storePermissions(ctx context.Context, userID int64, perms []string) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(perms)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, permCacheKey(userID), data, cacheTTL).Err(); err != nil {
		if s.logger != nil {
			s.logger.Warn("rbac store cache", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}

func permCacheKey(userID int64) string {
	return fmt.Sprintf("rbac:user:%d:perms", userID)
}
