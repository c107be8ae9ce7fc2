package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/estatedesk/estatedesk/internal/shared"
)

// DefaultUser is a seeded account with its role assignment.
type DefaultUser struct {
	Email    string
	Name     string
	Phone    string
	Password string
	Role     string
}

// DefaultUsers returns the accounts created at bootstrap.
func DefaultUsers() []DefaultUser {
	return []DefaultUser{
		{"admin@realestatecrm.com", "Admin User", "+92-300-1111111", "password", RoleAdmin},
		{"manager@realestatecrm.com", "Manager User", "+92-300-2222222", "password", RoleManager},
		{"dealer@realestatecrm.com", "Dealer User", "+92-300-3333333", "password", RoleDealer},
		{"accountant@realestatecrm.com", "Accountant User", "+92-300-4444444", "password", RoleAccountant},
	}
}

// DefaultCities returns the seeded city names.
func DefaultCities() []string {
	return []string{"Karachi", "Lahore", "Islamabad", "Rawalpindi", "Faisalabad"}
}

// PermissionSeed is one catalog entry to upsert.
type PermissionSeed struct {
	Name        string
	Description string
}

// UserSeed is a default account with its password already hashed.
type UserSeed struct {
	DefaultUser
	PasswordHash string
}

// Store persists seed data. Every method upserts by natural key —
// permission and role by (name, guard), user by email, city by name —
// so a rerun may update attributes but never duplicates a row. Each
// method commits completely or leaves nothing behind.
type Store interface {
	// UpsertPermissions writes the permission catalog.
	UpsertPermissions(ctx context.Context, guard string, perms []PermissionSeed) error
	// ApplyRolePolicies upserts each role and replaces its permission
	// set with the policy's. A policy referencing a permission missing
	// from the catalog aborts the whole step.
	ApplyRolePolicies(ctx context.Context, guard string, policies []RolePolicy) error
	// UpsertUsers creates the accounts and links each to its role.
	// Assigning a role missing from the catalog is fatal.
	UpsertUsers(ctx context.Context, guard string, users []UserSeed) error
	// UpsertCities inserts the city list, skipping names that exist.
	UpsertCities(ctx context.Context, names []string) error
}

// Run executes every seed step against the store. Upsert idempotency
// makes retries and repeated deploys safe.
func Run(ctx context.Context, store Store) error {
	perms := make([]PermissionSeed, 0, len(shared.AllScopes()))
	for _, name := range shared.AllScopes() {
		perms = append(perms, PermissionSeed{Name: name, Description: DescriptionFor(name)})
	}
	if err := store.UpsertPermissions(ctx, shared.GuardWeb, perms); err != nil {
		return fmt.Errorf("bootstrap: permissions: %w", err)
	}

	if err := store.ApplyRolePolicies(ctx, shared.GuardWeb, RolePolicies()); err != nil {
		return fmt.Errorf("bootstrap: roles: %w", err)
	}

	users := make([]UserSeed, 0, len(DefaultUsers()))
	for _, u := range DefaultUsers() {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("bootstrap: users: %w", err)
		}
		users = append(users, UserSeed{DefaultUser: u, PasswordHash: string(hash)})
	}
	if err := store.UpsertUsers(ctx, shared.GuardWeb, users); err != nil {
		return fmt.Errorf("bootstrap: users: %w", err)
	}

	if err := store.UpsertCities(ctx, DefaultCities()); err != nil {
		return fmt.Errorf("bootstrap: cities: %w", err)
	}
	return nil
}
