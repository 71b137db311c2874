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
	"sort"
	"sync"

	"github.com/accessgate/accessgate/internal/accessobject"
	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/role"
)

// Reassigner replaces a role's direct grant set. The store-level replace
// is transactional; on top of that a per-role mutex serializes
// reassignments of the same role, so the read-modify-write used by
// Grant and Revoke cannot lose updates to a concurrent editor.
type Reassigner struct {
	roles       *role.Service
	tree        *accessobject.Tree
	grants      GrantRepository
	auditLogger audit.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReassigner creates a new grant reassigner
func NewReassigner(roles *role.Service, tree *accessobject.Tree, grants GrantRepository, auditLogger audit.Logger) *Reassigner {
	return &Reassigner{
		roles:       roles,
		tree:        tree,
		grants:      grants,
		auditLogger: auditLogger,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (r *Reassigner) roleLock(roleName string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[roleName]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roleName] = l
	}
	return l
}

// Reassign replaces the role's entire direct grant set with actionNames.
// The new set is validated against the access object tree before anything
// is written: a single unknown name rejects the whole call and leaves the
// stored set untouched.
func (r *Reassigner) Reassign(ctx context.Context, roleName string, actionNames []string) error {
	lock := r.roleLock(roleName)
	lock.Lock()
	defer lock.Unlock()

	return r.reassignLocked(ctx, roleName, actionNames)
}

func (r *Reassigner) reassignLocked(ctx context.Context, roleName string, actionNames []string) error {
	if _, err := r.roles.Get(ctx, roleName); err != nil {
		return err
	}

	known := r.tree.AllActionNames()
	var unknown []string
	for _, name := range actionNames {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownActionError{ActionNames: unknown}
	}

	if err := r.grants.ReplaceGrants(ctx, roleName, dedupe(actionNames)); err != nil {
		return fmt.Errorf("failed to replace grants: %w", err)
	}

	r.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRightsReassigned,
		Resource: roleName,
		Metadata: map[string]any{"action_count": len(actionNames)},
	})

	return nil
}

// Grant adds one action to the role's direct grants. Implemented as
// read-then-replace under the role lock, matching the full-replace
// storage primitive.
func (r *Reassigner) Grant(ctx context.Context, roleName, actionName string) error {
	lock := r.roleLock(roleName)
	lock.Lock()
	defer lock.Unlock()

	current, err := r.grants.GetDirectGrants(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to load grants for %q: %w", roleName, err)
	}
	current[actionName] = struct{}{}

	return r.reassignLocked(ctx, roleName, setToSlice(current))
}

// Revoke removes one action from the role's direct grants. Revoking an
// action the role never held is a no-op. An inherited grant is not
// touched: it lives in an ancestor's set.
func (r *Reassigner) Revoke(ctx context.Context, roleName, actionName string) error {
	lock := r.roleLock(roleName)
	lock.Lock()
	defer lock.Unlock()

	current, err := r.grants.GetDirectGrants(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to load grants for %q: %w", roleName, err)
	}
	delete(current, actionName)

	return r.reassignLocked(ctx, roleName, setToSlice(current))
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
