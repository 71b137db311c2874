package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessgate/accessgate/internal/role"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mkRole(name string, parent *string) *role.Role {
	now := time.Now()
	return &role.Role{
		Name:        name,
		Description: "test role " + name,
		ParentName:  parent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func strptr(s string) *string { return &s }

func TestRoleRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, mkRole("admin", nil)))
	require.NoError(t, repo.Create(ctx, mkRole("editor", strptr("admin"))))

	got, err := repo.Get(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, "editor", got.Name)
	require.NotNil(t, got.ParentName)
	assert.Equal(t, "admin", *got.ParentName)

	root, err := repo.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, root.ParentName)
}

func TestRoleRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t))

	_, err := repo.Get(ctx, "ghost")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

func TestRoleRepository_ListAndChildren(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, mkRole("admin", nil)))
	require.NoError(t, repo.Create(ctx, mkRole("editor", strptr("admin"))))
	require.NoError(t, repo.Create(ctx, mkRole("auditor", strptr("admin"))))

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	children, err := repo.Children(ctx, "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"editor", "auditor"}, children)

	leaves, err := repo.Children(ctx, "editor")
	require.NoError(t, err)
	assert.Empty(t, leaves)
}

func TestRoleRepository_UpdateDescription(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, mkRole("admin", nil)))
	require.NoError(t, repo.UpdateDescription(ctx, "admin", "changed"))

	got, err := repo.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)

	assert.ErrorIs(t, repo.UpdateDescription(ctx, "ghost", "x"), role.ErrRoleNotFound)
}

func TestRoleRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, mkRole("admin", nil)))
	require.NoError(t, repo.Delete(ctx, "admin"))

	_, err := repo.Get(ctx, "admin")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "admin"), role.ErrRoleNotFound)
}

func TestGrantRepository_EmptySet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	grants := NewGrantRepository(db)

	// No grants is an empty set, not an error.
	set, err := grants.GetDirectGrants(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestGrantRepository_ReplaceGrants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	roles := NewRoleRepository(db)
	grants := NewGrantRepository(db)

	require.NoError(t, roles.Create(ctx, mkRole("admin", nil)))

	require.NoError(t, grants.ReplaceGrants(ctx, "admin", []string{"publish", "cms.view"}))
	set, err := grants.GetDirectGrants(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"publish": {}, "cms.view": {}}, set)

	// Replacement is total.
	require.NoError(t, grants.ReplaceGrants(ctx, "admin", []string{"articles.view"}))
	set, err = grants.GetDirectGrants(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"articles.view": {}}, set)

	require.NoError(t, grants.ReplaceGrants(ctx, "admin", nil))
	set, err = grants.GetDirectGrants(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestGrantRepository_DeleteRoleCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	roles := NewRoleRepository(db)
	grants := NewGrantRepository(db)

	require.NoError(t, roles.Create(ctx, mkRole("admin", nil)))
	require.NoError(t, grants.ReplaceGrants(ctx, "admin", []string{"publish"}))

	require.NoError(t, roles.Delete(ctx, "admin"))

	set, err := grants.GetDirectGrants(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, set)
}
