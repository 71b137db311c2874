package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

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

// GetDirectGrants retrieves the set of actions directly granted to a role.
// A role with no grants yields an empty set.
func (r *GrantRepository) GetDirectGrants(ctx context.Context, roleName string) (map[string]struct{}, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT action_name
		FROM role_grants
		WHERE role_name = $1
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

// ReplaceGrants swaps the role's entire grant set inside one transaction,
// so concurrent readers see either the old set or the new one.
func (r *GrantRepository) ReplaceGrants(ctx context.Context, roleName string, actionNames []string) error {
	tx, err := r.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM role_grants
		WHERE role_name = $1
	`, roleName); err != nil {
		return fmt.Errorf("failed to clear grants: %w", err)
	}

	for _, action := range actionNames {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_grants (role_name, action_name)
			VALUES ($1, $2)
		`, roleName, action); err != nil {
			return fmt.Errorf("failed to insert grant %q: %w", action, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit grants: %w", err)
	}

	return nil
}
