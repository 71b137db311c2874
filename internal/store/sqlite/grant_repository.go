package sqlite

import (
	"context"
	"fmt"

	"github.com/accessgate/accessgate/internal/rights"
)

// GrantRepository implements rights.GrantRepository
type GrantRepository struct {
	db *DB
}

var _ rights.GrantRepository = (*GrantRepository)(nil)

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// GetDirectGrants retrieves the set of actions directly granted to a role
func (r *GrantRepository) GetDirectGrants(ctx context.Context, roleName string) (map[string]struct{}, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT action_name
		FROM role_grants
		WHERE role_name = ?
	`, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to get grants: %w", err)
	}
	defer rows.Close()

	grants := make(map[string]struct{})
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants[action] = struct{}{}
	}

	return grants, rows.Err()
}

// ReplaceGrants swaps the role's entire grant set inside one transaction
func (r *GrantRepository) ReplaceGrants(ctx context.Context, roleName string, actionNames []string) error {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM role_grants
		WHERE role_name = ?
	`, roleName); err != nil {
		return fmt.Errorf("failed to clear grants: %w", err)
	}

	for _, action := range actionNames {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_grants (role_name, action_name, granted_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
		`, roleName, action); err != nil {
			return fmt.Errorf("failed to insert grant %q: %w", action, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grants: %w", err)
	}

	return nil
}
