package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/accessgate/accessgate/internal/role"
)

// RoleRepository implements role.Repository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role
func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	var parent sql.NullString
	if ro.ParentName != nil {
		parent = sql.NullString{String: *ro.ParentName, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (name, description, parent_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ro.Name, ro.Description, parent, ro.CreatedAt, ro.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// Get retrieves a role by name
func (r *RoleRepository) Get(ctx context.Context, name string) (*role.Role, error) {
	var ro role.Role
	var parent sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT name, description, parent_name, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&ro.Name, &ro.Description, &parent, &ro.CreatedAt, &ro.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if parent.Valid {
		ro.ParentName = &parent.String
	}

	return &ro, nil
}

// List retrieves all roles ordered by creation time
func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT name, description, parent_name, created_at, updated_at
		FROM roles
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		var ro role.Role
		var parent sql.NullString
		if err := rows.Scan(&ro.Name, &ro.Description, &parent, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if parent.Valid {
			ro.ParentName = &parent.String
		}
		roles = append(roles, &ro)
	}

	return roles, rows.Err()
}

// Children retrieves the names of immediate child roles
func (r *RoleRepository) Children(ctx context.Context, name string) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT name
		FROM roles
		WHERE parent_name = $1
		ORDER BY created_at, name
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []string
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("failed to scan child role: %w", err)
		}
		children = append(children, child)
	}

	return children, rows.Err()
}

// UpdateDescription changes a role's description
func (r *RoleRepository) UpdateDescription(ctx context.Context, name, description string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles
		SET description = $2, updated_at = $3
		WHERE name = $1
	`, name, description, time.Now())

	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}

	return nil
}

// Delete removes a role. Grants cascade at the schema level.
func (r *RoleRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM roles
		WHERE name = $1
	`, name)

	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}

	return nil
}
