// Copyright 2026 The Accessgate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/role"
)

// memRepo implements role.Repository in memory for unit tests
type memRepo struct {
	roles map[string]*role.Role
	order []string
}

func newMemRepo() *memRepo {
	return &memRepo{roles: make(map[string]*role.Role)}
}

func (m *memRepo) Create(ctx context.Context, r *role.Role) error {
	cp := *r
	m.roles[r.Name] = &cp
	m.order = append(m.order, r.Name)
	return nil
}

func (m *memRepo) Get(ctx context.Context, name string) (*role.Role, error) {
	r, ok := m.roles[name]
	if !ok {
		return nil, role.ErrRoleNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context) ([]*role.Role, error) {
	out := make([]*role.Role, 0, len(m.order))
	for _, name := range m.order {
		cp := *m.roles[name]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) Children(ctx context.Context, name string) ([]string, error) {
	var children []string
	for _, n := range m.order {
		r := m.roles[n]
		if r.ParentName != nil && *r.ParentName == name {
			children = append(children, r.Name)
		}
	}
	return children, nil
}

func (m *memRepo) UpdateDescription(ctx context.Context, name, description string) error {
	r, ok := m.roles[name]
	if !ok {
		return role.ErrRoleNotFound
	}
	r.Description = description
	return nil
}

func (m *memRepo) Delete(ctx context.Context, name string) error {
	if _, ok := m.roles[name]; !ok {
		return role.ErrRoleNotFound
	}
	delete(m.roles, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, event audit.Event) {}

func newService(t *testing.T) (*role.Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return role.NewService(repo, noopAudit{}), repo
}

func strptr(s string) *string { return &s }

func TestRole_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	r, err := svc.Create(ctx, "admin", "administrators", nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", r.Name)
	assert.Nil(t, r.ParentName)

	child, err := svc.Create(ctx, "editor", "content editors", strptr("admin"))
	require.NoError(t, err)
	assert.Equal(t, "admin", child.Parent())
}

func TestRole_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "admin", "again", nil)
	assert.ErrorIs(t, err, role.ErrRoleExists)
}

func TestRole_Create_UnknownParent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "editor", "", strptr("ghost"))
	assert.ErrorIs(t, err, role.ErrParentNotFound)
}

func TestRole_Create_SelfParent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", strptr("admin"))
	assert.ErrorIs(t, err, role.ErrCycleDetected)
}

func TestRole_AncestorChain(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "intern", "", strptr("editor"))
	require.NoError(t, err)

	chain, err := svc.AncestorChain(ctx, "intern")
	require.NoError(t, err)
	assert.Equal(t, []string{"intern", "editor", "admin"}, chain)

	chain, err = svc.AncestorChain(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, chain)
}

func TestRole_AncestorChain_UnknownRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.AncestorChain(ctx, "ghost")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

// A cycle in the stored hierarchy is data corruption the service cannot
// create through its own API; the walk must still terminate and name it.
func TestRole_AncestorChain_CorruptedCycle(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	repo.roles["a"] = &role.Role{Name: "a", ParentName: strptr("b")}
	repo.roles["b"] = &role.Role{Name: "b", ParentName: strptr("a")}
	repo.order = append(repo.order, "a", "b")

	_, err := svc.AncestorChain(ctx, "a")
	assert.ErrorIs(t, err, role.ErrCycleDetected)
}

func TestRole_Children(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "auditor", "", strptr("admin"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "intern", "", strptr("editor"))
	require.NoError(t, err)

	children, err := svc.Children(ctx, "admin")
	require.NoError(t, err)
	// Immediate children only, one level down.
	assert.ElementsMatch(t, []string{"editor", "auditor"}, children)
}

func TestRole_Tree_FlatNodes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "intern", "", strptr("editor"))
	require.NoError(t, err)

	// Querying any member of the tree returns the whole tree.
	nodes, err := svc.Tree(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, []role.TreeNode{
		{Name: "admin", ParentName: ""},
		{Name: "editor", ParentName: "admin"},
		{Name: "intern", ParentName: "editor"},
	}, nodes)
}

func TestRole_Tree_IgnoresOtherForests(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "support", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)

	nodes, err := svc.Tree(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, []role.TreeNode{{Name: "support", ParentName: ""}}, nodes)
}

func TestRole_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "admin"))

	_, err = svc.Get(ctx, "admin")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

func TestRole_Delete_WithChildren(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)

	err = svc.Delete(ctx, "admin")
	assert.ErrorIs(t, err, role.ErrRoleHasChildren)

	// Role stays intact after the rejected delete.
	r, err := svc.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", r.Name)
}

func TestRole_Delete_Unknown(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	err := svc.Delete(ctx, "ghost")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

func TestRole_UpdateDescription(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "admin", "old", nil)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateDescription(ctx, "admin", "new"))

	r, err := svc.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "new", r.Description)
}
