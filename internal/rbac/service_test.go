package rbac

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRBACRepo struct {
	roles      map[int64]Role
	catalog    map[string]Permission
	rolePerms  map[int64][]string
	userRoles  map[int64][]int64
	nextRoleID int64
	nextPermID int64
}

func newMemoryRBACRepo() *memoryRBACRepo {
	return &memoryRBACRepo{
		roles:     make(map[int64]Role),
		catalog:   make(map[string]Permission),
		rolePerms: make(map[int64][]string),
		userRoles: make(map[int64][]int64),
	}
}

func (r *memoryRBACRepo) addRole(name string, perms ...string) Role {
	r.nextRoleID++
	role := Role{ID: r.nextRoleID, Name: name, Guard: "web"}
	r.roles[role.ID] = role
	for _, p := range perms {
		r.addPermission(p)
	}
	r.rolePerms[role.ID] = append([]string(nil), perms...)
	return role
}

func (r *memoryRBACRepo) addPermission(name string) {
	if _, ok := r.catalog[name]; ok {
		return
	}
	r.nextPermID++
	r.catalog[name] = Permission{ID: r.nextPermID, Name: name, Guard: "web"}
}

func (r *memoryRBACRepo) assign(userID int64, roleID int64) {
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
}

func (r *memoryRBACRepo) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRBACRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	var out []Permission
	for _, p := range r.catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRBACRepo) GetRoleByName(ctx context.Context, name, guard string) (Role, error) {
	for _, role := range r.roles {
		if role.Name == name && role.Guard == guard {
			return role, nil
		}
	}
	return Role{}, ErrNotFound
}

func (r *memoryRBACRepo) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	var out []Role
	for _, id := range r.userRoles[userID] {
		out = append(out, r.roles[id])
	}
	return out, nil
}

func (r *memoryRBACRepo) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, roleID := range r.userRoles[userID] {
		for _, p := range r.rolePerms[roleID] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryRBACRepo) ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error {
	if _, ok := r.roles[roleID]; !ok {
		return ErrNotFound
	}
	for _, n := range names {
		if _, ok := r.catalog[n]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, n)
		}
	}
	r.rolePerms[roleID] = append([]string(nil), names...)
	return nil
}

func (r *memoryRBACRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	for _, id := range r.userRoles[userID] {
		if id == roleID {
			return nil
		}
	}
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
	return nil
}

func (r *memoryRBACRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	kept := r.userRoles[userID][:0]
	for _, id := range r.userRoles[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	r.userRoles[userID] = kept
	return nil
}

func (r *memoryRBACRepo) UsersWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	var out []int64
	for userID, roles := range r.userRoles {
		for _, id := range roles {
			if id == roleID {
				out = append(out, userID)
			}
		}
	}
	return out, nil
}

func TestEffectivePermissionsUnion(t *testing.T) {
	repo := newMemoryRBACRepo()
	dealer := repo.addRole("dealer", "leads.view", "leads.create", "clients.view")
	accountant := repo.addRole("accountant", "payments.view", "payments.create", "clients.view")
	repo.assign(7, dealer.ID)
	repo.assign(7, accountant.ID)

	// Same roles assigned in reverse order for a second user.
	repo.assign(8, accountant.ID)
	repo.assign(8, dealer.ID)

	svc := NewService(repo, nil, nil)

	first, err := svc.EffectivePermissions(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.EffectivePermissions(context.Background(), 8)
	require.NoError(t, err)

	want := []string{"clients.view", "leads.create", "leads.view", "payments.create", "payments.view"}
	require.Equal(t, want, first)
	require.Equal(t, first, second)

	seen := make(map[string]int)
	for _, p := range first {
		seen[p]++
	}
	for p, n := range seen {
		require.Equal(t, 1, n, "permission %s duplicated", p)
	}
}

func TestEffectivePermissionsEmptyWithoutRoles(t *testing.T) {
	repo := newMemoryRBACRepo()
	repo.addRole("admin", "users.view")

	svc := NewService(repo, nil, nil)
	perms, err := svc.EffectivePermissions(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestCanFailsClosedForUnknownPermission(t *testing.T) {
	repo := newMemoryRBACRepo()
	admin := repo.addRole("admin", "users.view", "users.edit", "roles.manage")
	repo.assign(1, admin.ID)

	svc := NewService(repo, nil, nil)

	ok, err := svc.Can(context.Background(), 1, "users.view")
	require.NoError(t, err)
	require.True(t, ok)

	for _, perm := range []string{"users.obliterate", "nonsense", ""} {
		ok, err := svc.Can(context.Background(), 1, perm)
		require.NoError(t, err)
		require.False(t, ok, "permission %q must not be granted", perm)
	}
}

func TestHasRoleExactMatch(t *testing.T) {
	repo := newMemoryRBACRepo()
	manager := repo.addRole("manager")
	repo.assign(3, manager.ID)

	svc := NewService(repo, nil, nil)

	ok, err := svc.HasRole(context.Background(), 3, "manager")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasRole(context.Background(), 3, "Manager")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetRolePermissionsReplacesPriorSet(t *testing.T) {
	repo := newMemoryRBACRepo()
	manager := repo.addRole("manager", "users.view", "users.edit", "reports.view")
	repo.addPermission("leads.view")
	repo.assign(5, manager.ID)

	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.SetRolePermissions(context.Background(), manager.ID, []string{"users.view", "leads.view"}))

	perms, err := svc.EffectivePermissions(context.Background(), 5)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"users.view", "leads.view"}, perms)

	ok, err := svc.Can(context.Background(), 5, "reports.view")
	require.NoError(t, err)
	require.False(t, ok, "permission dropped from the new set must no longer be granted")
}

func TestSetRolePermissionsRejectsUnknownName(t *testing.T) {
	repo := newMemoryRBACRepo()
	role := repo.addRole("staff", "societies.view")

	svc := NewService(repo, nil, nil)
	err := svc.SetRolePermissions(context.Background(), role.ID, []string{"societies.view", "made.up"})
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestPermissionCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newMemoryRBACRepo()
	staff := repo.addRole("staff", "societies.view")
	dealer := repo.addRole("dealer", "leads.view")
	repo.assign(9, staff.ID)

	svc := NewService(repo, cache, nil)

	perms, err := svc.EffectivePermissions(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, []string{"societies.view"}, perms)

	// Mutate behind the cache: without invalidation the stale set would be served.
	require.NoError(t, svc.AssignRole(context.Background(), 9, dealer.ID))

	perms, err = svc.EffectivePermissions(context.Background(), 9)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"societies.view", "leads.view"}, perms)

	require.NoError(t, svc.SetRolePermissions(context.Background(), dealer.ID, []string{}))
	perms, err = svc.EffectivePermissions(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, []string{"societies.view"}, perms)
}
