package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the PostgreSQL Store. Each step runs in its own
// transaction.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore builds a PGStore instance.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) UpsertPermissions(ctx context.Context, guard string, perms []PermissionSeed) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, p := range perms {
		if _, err := tx.Exec(ctx, `
			INSERT INTO permissions (name, guard, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (name, guard) DO UPDATE SET description = EXCLUDED.description`,
			p.Name, guard, p.Description); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) ApplyRolePolicies(ctx context.Context, guard string, policies []RolePolicy) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, policy := range policies {
		var roleID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, guard, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (name, guard) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
			RETURNING id`, policy.Name, guard, policy.Description).Scan(&roleID)
		if err != nil {
			return fmt.Errorf("upsert role %s: %w", policy.Name, err)
		}
		// Replace semantics: the stored set becomes exactly the policy
		// set, dropping grants removed from the policy.
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, permName := range policy.Permissions {
			tag, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT $1, id FROM permissions WHERE name = $2 AND guard = $3
				ON CONFLICT DO NOTHING`, roleID, permName, guard)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("role %s references unknown permission %s", policy.Name, permName)
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) UpsertUsers(ctx context.Context, guard string, users []UserSeed) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, u := range users {
		var userID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, phone, password_hash, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone
			RETURNING id`, u.Email, u.Name, u.Phone, u.PasswordHash).Scan(&userID)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}

		var roleID int64
		err = tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1 AND guard = $2`, u.Role, guard).Scan(&roleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("user %s references unknown role %s", u.Email, u.Role)
			}
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, userID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) UpsertCities(ctx context.Context, names []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, name := range names {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cities (name)
			VALUES ($1)
			ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
