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

package rights

import (
	"context"
	"fmt"

	"github.com/accessgate/accessgate/internal/accessobject"
	"github.com/accessgate/accessgate/internal/role"
)

// Evaluator computes effective rights for a role over the access object
// tree. Every call re-reads the grant store; there is no caching layer,
// so a reassignment is visible to the next evaluation immediately, for
// the role itself and for every descendant.
type Evaluator struct {
	roles  *role.Service
	tree   *accessobject.Tree
	grants GrantRepository
}

// NewEvaluator creates a new rights evaluator
func NewEvaluator(roles *role.Service, tree *accessobject.Tree, grants GrantRepository) *Evaluator {
	return &Evaluator{
		roles:  roles,
		tree:   tree,
		grants: grants,
	}
}

// Evaluate returns the access object tree annotated with OwnGrant and
// ParentGrant flags for the named role. OwnGrant means the role itself
// holds the action; ParentGrant means some strict ancestor holds it.
// The role must exist even though the tree shape does not depend on it.
func (e *Evaluator) Evaluate(ctx context.Context, roleName string) ([]*ObjectRights, error) {
	chain, err := e.roles.AncestorChain(ctx, roleName)
	if err != nil {
		return nil, err
	}

	ownSet, err := e.grants.GetDirectGrants(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants for %q: %w", roleName, err)
	}

	// Union across ancestors, excluding the role itself. Grants are a
	// boolean OR, so accumulation order does not matter.
	parentSet := make(map[string]struct{})
	for _, ancestor := range chain[1:] {
		set, err := e.grants.GetDirectGrants(ctx, ancestor)
		if err != nil {
			return nil, fmt.Errorf("failed to load grants for ancestor %q: %w", ancestor, err)
		}
		for name := range set {
			parentSet[name] = struct{}{}
		}
	}

	roots := e.tree.Roots()
	result := make([]*ObjectRights, 0, len(roots))
	for _, obj := range roots {
		result = append(result, annotate(obj, ownSet, parentSet))
	}

	return result, nil
}

// annotate walks the object subtree depth-first, preserving structural
// order. Grants whose actions no longer exist in the tree are simply
// never visited, so orphaned store entries stay invisible.
func annotate(obj *accessobject.AccessObject, ownSet, parentSet map[string]struct{}) *ObjectRights {
	node := &ObjectRights{
		ObjectName: obj.Name,
		ObjectType: obj.Type,
	}

	for _, action := range obj.Actions {
		_, own := ownSet[action.Name]
		_, parent := parentSet[action.Name]
		node.Actions = append(node.Actions, ActionGrant{
			ActionName:        action.Name,
			ActionType:        action.Type,
			ActionDescription: action.Description,
			OwnGrant:          own,
			ParentGrant:       parent,
		})
	}

	for _, child := range obj.Children {
		node.Children = append(node.Children, annotate(child, ownSet, parentSet))
	}

	return node
}
