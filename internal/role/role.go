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
	"time"
)

// Domain errors
var (
	ErrRoleNotFound    = errors.New("role not found")
	ErrRoleExists      = errors.New("role already exists")
	ErrParentNotFound  = errors.New("parent role not found")
	ErrCycleDetected   = errors.New("role hierarchy contains a cycle")
	ErrRoleHasChildren = errors.New("role has child roles")
)

// Role is a named grant holder in the hierarchy. Roles form a forest:
// each role has at most one parent and inherits every grant held by
// its ancestor chain.
type Role struct {
	Name        string
	Description string
	ParentName  *string // nil for root roles
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Parent returns the parent role name, or "" for a root role.
func (r *Role) Parent() string {
	if r.ParentName == nil {
		return ""
	}
	return *r.ParentName
}

// TreeNode is the flat representation of a role hierarchy node used by
// hierarchy views. Clients reconstruct the tree by matching ParentName.
type TreeNode struct {
	Name       string `json:"name"`
	ParentName string `json:"parentName"`
}

// Repository defines persistence operations for roles
type Repository interface {
	Create(ctx context.Context, role *Role) error
	Get(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Children(ctx context.Context, name string) ([]string, error)
	UpdateDescription(ctx context.Context, name, description string) error
	Delete(ctx context.Context, name string) error
}
