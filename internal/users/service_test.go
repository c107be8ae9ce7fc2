package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

type memoryUserRepo struct {
	nextID int64
	users  map[int64]User
	hashes map[int64]string
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1, users: map[int64]User{}, hashes: map[int64]string{}}
}

func (r *memoryUserRepo) ListUsers(ctx context.Context, pagination shared.Pagination) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, input CreateUserInput, passwordHash string) (User, error) {
	for _, u := range r.users {
		if u.Email == input.Email {
			return User{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, input.Email)
		}
	}
	u := User{
		ID:        r.nextID,
		Email:     input.Email,
		Name:      input.Name,
		Phone:     input.Phone,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.users[u.ID] = u
	r.hashes[u.ID] = passwordHash
	r.nextID++
	return u, nil
}

func (r *memoryUserRepo) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.Name = input.Name
	u.Phone = input.Phone
	u.IsActive = input.IsActive
	r.users[id] = u
	return u, nil
}

func (r *memoryUserRepo) DeactivateUser(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = false
	r.users[id] = u
	return nil
}

type stubRBACRepo struct {
	roles       map[string]rbac.Role
	assignments map[int64][]int64
}

func newStubRBACRepo(names ...string) *stubRBACRepo {
	r := &stubRBACRepo{roles: map[string]rbac.Role{}, assignments: map[int64][]int64{}}
	for i, name := range names {
		r.roles[name] = rbac.Role{ID: int64(i + 1), Name: name, Guard: shared.GuardWeb}
	}
	return r
}

func (r *stubRBACRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) { return nil, nil }

func (r *stubRBACRepo) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (r *stubRBACRepo) GetRoleByName(ctx context.Context, name, guard string) (rbac.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return role, nil
}

func (r *stubRBACRepo) RolesForUser(ctx context.Context, userID int64) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, roleID := range r.assignments[userID] {
		for _, role := range r.roles {
			if role.ID == roleID {
				out = append(out, role)
			}
		}
	}
	return out, nil
}

func (r *stubRBACRepo) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

func (r *stubRBACRepo) ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error {
	return nil
}

func (r *stubRBACRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	r.assignments[userID] = append(r.assignments[userID], roleID)
	return nil
}

func (r *stubRBACRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	kept := r.assignments[userID][:0]
	for _, id := range r.assignments[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	r.assignments[userID] = kept
	return nil
}

func (r *stubRBACRepo) UsersWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	return nil, nil
}

func newTestService(rbacRepo *stubRBACRepo) (*Service, *memoryUserRepo) {
	repo := newMemoryUserRepo()
	return NewService(repo, rbac.NewService(rbacRepo, nil, nil)), repo
}

func TestCreateUserHashesPasswordAndAssignsRoles(t *testing.T) {
	rbacRepo := newStubRBACRepo("manager")
	svc, repo := newTestService(rbacRepo)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "Manager@RealEstateCRM.com",
		Name:     "Manager User",
		Phone:    "+92-300-2222222",
		Password: "password",
		Roles:    []string{"manager"},
	})
	require.NoError(t, err)
	require.Equal(t, "manager@realestatecrm.com", user.Email)
	require.Equal(t, []string{"manager"}, user.Roles)

	hash := repo.hashes[user.ID]
	require.NotEqual(t, "password", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password")))
	require.Equal(t, []int64{1}, rbacRepo.assignments[user.ID])
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, repo := newTestService(newStubRBACRepo("manager"))

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "dealer@realestatecrm.com",
		Name:     "Dealer",
		Password: "password",
		Roles:    []string{"superuser"},
	})
	require.ErrorIs(t, err, ErrUnknownRole)
	require.Empty(t, repo.users)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(newStubRBACRepo())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "admin@realestatecrm.com",
		Name:     "Admin",
		Password: "password",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "admin@realestatecrm.com",
		Name:     "Impostor",
		Password: "password",
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAssignAndRemoveRoleByName(t *testing.T) {
	rbacRepo := newStubRBACRepo("dealer", "accountant")
	svc, _ := newTestService(rbacRepo)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "dealer@realestatecrm.com",
		Name:     "Dealer",
		Password: "password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(context.Background(), user.ID, "dealer"))
	require.NoError(t, svc.AssignRole(context.Background(), user.ID, "accountant"))
	require.Len(t, rbacRepo.assignments[user.ID], 2)

	require.NoError(t, svc.RemoveRole(context.Background(), user.ID, "dealer"))
	require.Len(t, rbacRepo.assignments[user.ID], 1)

	require.ErrorIs(t, svc.AssignRole(context.Background(), user.ID, "ghost"), ErrUnknownRole)
}

func TestDeactivateUser(t *testing.T) {
	svc, repo := newTestService(newStubRBACRepo())

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "staff@realestatecrm.com",
		Name:     "Staff",
		Password: "password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID))
	require.False(t, repo.users[user.ID].IsActive)

	require.ErrorIs(t, svc.DeactivateUser(context.Background(), 999), shared.ErrNotFound)
}
