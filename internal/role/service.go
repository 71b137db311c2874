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

package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/accessgate/accessgate/internal/audit"
)

// Service provides role hierarchy business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new role service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// Create creates a new role, optionally attached to a parent
func (s *Service) Create(ctx context.Context, name, description string, parentName *string) (*Role, error) {
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	if _, err := s.repo.Get(ctx, name); err == nil {
		return nil, ErrRoleExists
	}

	if parentName != nil {
		if *parentName == name {
			return nil, ErrCycleDetected
		}
		parent, err := s.repo.Get(ctx, *parentName)
		if err != nil {
			return nil, ErrParentNotFound
		}
		// Creating a fresh name cannot close a loop, but the walk also
		// verifies the stored chain itself is still acyclic.
		chain, err := s.ancestorsOf(ctx, parent)
		if err != nil {
			return nil, err
		}
		for _, a := range chain {
			if a == name {
				return nil, ErrCycleDetected
			}
		}
	}

	now := time.Now()
	r := &Role{
		Name:        name,
		Description: description,
		ParentName:  parentName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleCreated,
		Resource: name,
		Metadata: map[string]any{"parent": r.Parent()},
	})

	return r, nil
}

// Get retrieves a single role by name
func (s *Service) Get(ctx context.Context, name string) (*Role, error) {
	return s.repo.Get(ctx, name)
}

// List returns all roles
func (s *Service) List(ctx context.Context) ([]*Role, error) {
	return s.repo.List(ctx)
}

// UpdateDescription changes a role's description
func (s *Service) UpdateDescription(ctx context.Context, name, description string) error {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return err
	}
	if err := s.repo.UpdateDescription(ctx, name, description); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleUpdated,
		Resource: name,
	})

	return nil
}

// AncestorChain returns the role names starting with the role itself and
// proceeding through each parent link up to the root. A cycle in the
// stored hierarchy is reported as ErrCycleDetected instead of looping.
func (s *Service) AncestorChain(ctx context.Context, name string) ([]string, error) {
	r, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	chain := []string{r.Name}
	ancestors, err := s.ancestorsOf(ctx, r)
	if err != nil {
		return nil, err
	}
	return append(chain, ancestors...), nil
}

// ancestorsOf walks parent links strictly above r, guarding against
// corrupted data with a visited set.
func (s *Service) ancestorsOf(ctx context.Context, r *Role) ([]string, error) {
	visited := map[string]bool{r.Name: true}
	var chain []string

	cur := r
	for cur.ParentName != nil {
		parentName := *cur.ParentName
		if visited[parentName] {
			return nil, ErrCycleDetected
		}
		visited[parentName] = true

		parent, err := s.repo.Get(ctx, parentName)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				return nil, fmt.Errorf("role %q references missing parent %q: %w", cur.Name, parentName, ErrParentNotFound)
			}
			return nil, err
		}
		chain = append(chain, parent.Name)
		cur = parent
	}

	return chain, nil
}

// Children returns the immediate child role names (one level only)
func (s *Service) Children(ctx context.Context, name string) ([]string, error) {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return nil, err
	}
	return s.repo.Children(ctx, name)
}

// Tree returns every node of the forest tree containing the named role,
// as a flat list. Clients rebuild the hierarchy by matching ParentName.
func (s *Service) Tree(ctx context.Context, name string) ([]TreeNode, error) {
	chain, err := s.AncestorChain(ctx, name)
	if err != nil {
		return nil, err
	}
	root := chain[len(chain)-1]

	// Breadth-first from the root so parents always precede children
	// in the output.
	var nodes []TreeNode
	queue := []string{root}
	seen := map[string]bool{root: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		r, err := s.repo.Get(ctx, cur)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, TreeNode{Name: r.Name, ParentName: r.Parent()})

		children, err := s.repo.Children(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c] {
				return nil, ErrCycleDetected
			}
			seen[c] = true
			queue = append(queue, c)
		}
	}

	return nodes, nil
}

// Delete removes a role. Roles with children are rejected: deleting a
// parent would orphan the subtree and silently change every descendant's
// inherited grants.
func (s *Service) Delete(ctx context.Context, name string) error {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return err
	}

	children, err := s.repo.Children(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list children: %w", err)
	}
	if len(children) > 0 {
		return ErrRoleHasChildren
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeleted,
		Resource: name,
	})

	return nil
}
