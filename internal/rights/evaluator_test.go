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

package rights_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessgate/accessgate/internal/accessobject"
	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/rights"
	"github.com/accessgate/accessgate/internal/role"
)

const testTree = `
objects:
  - name: cms
    type: APP
    actions:
      - name: cms.view
        type: r
        description: Open the CMS
    children:
      - name: articles
        type: TAB
        actions:
          - name: articles.view
            type: r
            description: View articles
          - name: publish
            type: w
            description: Publish an article
        children:
          - name: purge-btn
            type: BUTTON
            actions:
              - name: articles.purge
                type: s
                description: Purge an article
`

// memRoleRepo implements role.Repository in memory
type memRoleRepo struct {
	roles map[string]*role.Role
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{roles: make(map[string]*role.Role)}
}

func (m *memRoleRepo) Create(ctx context.Context, r *role.Role) error {
	m.roles[r.Name] = r
	return nil
}

func (m *memRoleRepo) Get(ctx context.Context, name string) (*role.Role, error) {
	r, ok := m.roles[name]
	if !ok {
		return nil, role.ErrRoleNotFound
	}
	return r, nil
}

func (m *memRoleRepo) List(ctx context.Context) ([]*role.Role, error) {
	out := make([]*role.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRoleRepo) Children(ctx context.Context, name string) ([]string, error) {
	var children []string
	for _, r := range m.roles {
		if r.ParentName != nil && *r.ParentName == name {
			children = append(children, r.Name)
		}
	}
	return children, nil
}

func (m *memRoleRepo) UpdateDescription(ctx context.Context, name, description string) error {
	r, ok := m.roles[name]
	if !ok {
		return role.ErrRoleNotFound
	}
	r.Description = description
	return nil
}

func (m *memRoleRepo) Delete(ctx context.Context, name string) error {
	delete(m.roles, name)
	return nil
}

// memGrantRepo implements rights.GrantRepository in memory
type memGrantRepo struct {
	grants map[string]map[string]struct{}
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{grants: make(map[string]map[string]struct{})}
}

func (m *memGrantRepo) GetDirectGrants(ctx context.Context, roleName string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for a := range m.grants[roleName] {
		out[a] = struct{}{}
	}
	return out, nil
}

func (m *memGrantRepo) ReplaceGrants(ctx context.Context, roleName string, actionNames []string) error {
	set := make(map[string]struct{}, len(actionNames))
	for _, a := range actionNames {
		set[a] = struct{}{}
	}
	m.grants[roleName] = set
	return nil
}

type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, event audit.Event) {}

type fixture struct {
	roles      *role.Service
	tree       *accessobject.Tree
	grants     *memGrantRepo
	evaluator  *rights.Evaluator
	reassigner *rights.Reassigner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tree, err := accessobject.Parse([]byte(testTree))
	require.NoError(t, err)

	roles := role.NewService(newMemRoleRepo(), noopAudit{})
	grants := newMemGrantRepo()

	return &fixture{
		roles:      roles,
		tree:       tree,
		grants:     grants,
		evaluator:  rights.NewEvaluator(roles, tree, grants),
		reassigner: rights.NewReassigner(roles, tree, grants, noopAudit{}),
	}
}

func strptr(s string) *string { return &s }

// findGrant walks the annotated tree for one action
func findGrant(t *testing.T, nodes []*rights.ObjectRights, actionName string) rights.ActionGrant {
	t.Helper()
	var walk func(nodes []*rights.ObjectRights) *rights.ActionGrant
	walk = func(nodes []*rights.ObjectRights) *rights.ActionGrant {
		for _, n := range nodes {
			for _, a := range n.Actions {
				if a.ActionName == actionName {
					return &a
				}
			}
			if found := walk(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	found := walk(nodes)
	require.NotNil(t, found, "action %s not in result", actionName)
	return *found
}

func TestEvaluate_RootRoleHasNoParentGrants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	require.NoError(t, f.reassigner.Reassign(ctx, "admin", []string{"publish", "cms.view"}))

	result, err := f.evaluator.Evaluate(ctx, "admin")
	require.NoError(t, err)

	for _, action := range []string{"cms.view", "articles.view", "publish", "articles.purge"} {
		assert.False(t, findGrant(t, result, action).ParentGrant,
			"root role must never see parentGrant on %s", action)
	}
	assert.True(t, findGrant(t, result, "publish").OwnGrant)
	assert.False(t, findGrant(t, result, "articles.view").OwnGrant)
}

func TestEvaluate_InheritedGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	require.NoError(t, f.reassigner.Reassign(ctx, "admin", []string{"publish"}))

	// The child sees the grant as inherited, not its own.
	result, err := f.evaluator.Evaluate(ctx, "editor")
	require.NoError(t, err)
	grant := findGrant(t, result, "publish")
	assert.False(t, grant.OwnGrant)
	assert.True(t, grant.ParentGrant)

	// The parent sees it as its own, with nothing inherited.
	result, err = f.evaluator.Evaluate(ctx, "admin")
	require.NoError(t, err)
	grant = findGrant(t, result, "publish")
	assert.True(t, grant.OwnGrant)
	assert.False(t, grant.ParentGrant)
}

func TestEvaluate_GrandparentGrantIsInherited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "intern", "", strptr("editor"))
	require.NoError(t, err)
	require.NoError(t, f.reassigner.Reassign(ctx, "admin", []string{"articles.purge"}))

	result, err := f.evaluator.Evaluate(ctx, "intern")
	require.NoError(t, err)
	grant := findGrant(t, result, "articles.purge")
	assert.False(t, grant.OwnGrant)
	assert.True(t, grant.ParentGrant)
}

func TestEvaluate_OwnAndParentAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)
	require.NoError(t, f.reassigner.Reassign(ctx, "admin", []string{"publish"}))
	require.NoError(t, f.reassigner.Reassign(ctx, "editor", []string{"publish"}))

	// Both flags can be true at once; they are never collapsed.
	result, err := f.evaluator.Evaluate(ctx, "editor")
	require.NoError(t, err)
	grant := findGrant(t, result, "publish")
	assert.True(t, grant.OwnGrant)
	assert.True(t, grant.ParentGrant)
}

func TestEvaluate_UnknownRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.evaluator.Evaluate(ctx, "ghost")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

func TestEvaluate_ShapeMirrorsObjectTree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)

	result, err := f.evaluator.Evaluate(ctx, "admin")
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, "cms", result[0].ObjectName)
	assert.Equal(t, accessobject.ObjectTypeApp, result[0].ObjectType)
	require.Len(t, result[0].Children, 1)
	articles := result[0].Children[0]
	assert.Equal(t, "articles", articles.ObjectName)
	require.Len(t, articles.Children, 1)
	assert.Equal(t, "purge-btn", articles.Children[0].ObjectName)
	require.Len(t, articles.Actions, 2)
	assert.Equal(t, "articles.view", articles.Actions[0].ActionName)
	assert.Equal(t, "publish", articles.Actions[1].ActionName)
	assert.Equal(t, "Publish an article", articles.Actions[1].ActionDescription)
	assert.Equal(t, accessobject.ActionTypeWrite, articles.Actions[1].ActionType)
}

// An action removed from the tree but still present in the grant store
// must never surface in evaluation output.
func TestEvaluate_OrphanedGrantStaysInvisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)

	// Write directly to the store, bypassing reassign validation, the
	// way a stale entry would survive a tree redeploy.
	f.grants.grants["admin"] = map[string]struct{}{"retired.action": {}, "publish": {}}

	result, err := f.evaluator.Evaluate(ctx, "admin")
	require.NoError(t, err)

	assert.True(t, findGrant(t, result, "publish").OwnGrant)
	var names []string
	var walk func(nodes []*rights.ObjectRights)
	walk = func(nodes []*rights.ObjectRights) {
		for _, n := range nodes {
			for _, a := range n.Actions {
				names = append(names, a.ActionName)
			}
			walk(n.Children)
		}
	}
	walk(result)
	assert.NotContains(t, names, "retired.action")
}

func TestEvaluate_ReassignVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Create(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "editor", "", strptr("admin"))
	require.NoError(t, err)

	require.NoError(t, f.reassigner.Reassign(ctx, "admin", []string{"publish"}))
	result, err := f.evaluator.Evaluate(ctx, "editor")
	require.NoError(t, err)
	assert.True(t, findGrant(t, result, "publish").ParentGrant)

	// No caching layer: clearing the parent's grants is visible on the
	// very next evaluation of the descendant.
	require.NoError(t, f.reassigner.Reassign(ctx, "admin", nil))
	result, err = f.evaluator.Evaluate(ctx, "editor")
	require.NoError(t, err)
	assert.False(t, findGrant(t, result, "publish").ParentGrant)
}
