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
	"strings"

	"github.com/accessgate/accessgate/internal/accessobject"
)

// GrantRepository persists the set of action names directly granted to
// each role. A role with no stored grants yields an empty set, not an
// error. ReplaceGrants is a total replacement and must be atomic: a
// concurrent reader sees either the old set or the new one, never a mix.
type GrantRepository interface {
	GetDirectGrants(ctx context.Context, roleName string) (map[string]struct{}, error)
	ReplaceGrants(ctx context.Context, roleName string, actionNames []string) error
}

// UnknownActionError reports action names that do not exist in the
// access object tree.
type UnknownActionError struct {
	ActionNames []string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown actions: %s", strings.Join(e.ActionNames, ", "))
}

// ActionGrant is the computed grant status of one action for one role.
// OwnGrant and ParentGrant are reported separately on purpose: an
// operator must be able to tell "this role grants X" apart from "X is
// inherited and cannot be revoked by editing this role". They are never
// collapsed into a single boolean.
type ActionGrant struct {
	ActionName        string                  `json:"actionName"`
	ActionType        accessobject.ActionType `json:"actionType"`
	ActionDescription string                  `json:"actionDescription"`
	OwnGrant          bool                    `json:"ownGrant"`
	ParentGrant       bool                    `json:"parentGrant"`
}

// ObjectRights mirrors the access object tree with every action
// annotated for a particular role. Recomputed on each evaluation, never
// persisted.
type ObjectRights struct {
	ObjectName string                  `json:"objectName"`
	ObjectType accessobject.ObjectType `json:"objectType"`
	Actions    []ActionGrant           `json:"actions,omitempty"`
	Children   []*ObjectRights         `json:"children,omitempty"`
}
