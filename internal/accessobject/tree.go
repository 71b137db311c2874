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

package accessobject

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrActionNotFound = errors.New("action not found")
)

// ObjectType classifies a node in the access object hierarchy
type ObjectType string

const (
	ObjectTypeApp    ObjectType = "APP"
	ObjectTypeTab    ObjectType = "TAB"
	ObjectTypeButton ObjectType = "BUTTON"
)

// ActionType is the wire encoding of an action class
type ActionType string

const (
	ActionTypeRead    ActionType = "r"
	ActionTypeWrite   ActionType = "w"
	ActionTypeSpecial ActionType = "s"
)

// Action is a grantable operation exposed by exactly one access object.
// Action names are globally unique across the whole tree.
type Action struct {
	Name        string
	Type        ActionType
	Description string
}

// AccessObject is a node of the UI surface hierarchy (application, tab,
// button) carrying the actions that can be granted on it.
type AccessObject struct {
	Name       string
	Type       ObjectType
	ParentName string // "" for root objects
	Actions    []Action
	Children   []*AccessObject
}

// Tree is the immutable access object hierarchy. It is loaded once from
// configuration and never mutated afterwards; traversal order is the
// declaration order of the configuration, so repeated walks are
// deterministic.
type Tree struct {
	roots    []*AccessObject
	byAction map[string]*AccessObject
}

// childTypes defines the permitted nesting: APP holds TABs, TAB holds BUTTONs.
var childTypes = map[ObjectType]ObjectType{
	ObjectTypeApp: ObjectTypeTab,
	ObjectTypeTab: ObjectTypeButton,
}

// New builds a Tree from root objects, validating structural invariants:
// unique object names, globally unique action names, known type enums and
// APP > TAB > BUTTON nesting.
func New(roots []*AccessObject) (*Tree, error) {
	t := &Tree{
		roots:    roots,
		byAction: make(map[string]*AccessObject),
	}

	objectNames := make(map[string]bool)
	for _, root := range roots {
		if root.Type != ObjectTypeApp {
			return nil, fmt.Errorf("root object %q must be of type %s, got %s", root.Name, ObjectTypeApp, root.Type)
		}
		if err := t.index(root, "", objectNames); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Tree) index(obj *AccessObject, parentName string, objectNames map[string]bool) error {
	if obj.Name == "" {
		return fmt.Errorf("access object with empty name under %q", parentName)
	}
	if objectNames[obj.Name] {
		return fmt.Errorf("duplicate access object name %q", obj.Name)
	}
	objectNames[obj.Name] = true
	obj.ParentName = parentName

	for _, a := range obj.Actions {
		switch a.Type {
		case ActionTypeRead, ActionTypeWrite, ActionTypeSpecial:
		default:
			return fmt.Errorf("action %q on object %q has unknown type %q", a.Name, obj.Name, a.Type)
		}
		if _, exists := t.byAction[a.Name]; exists {
			return fmt.Errorf("duplicate action name %q on object %q", a.Name, obj.Name)
		}
		t.byAction[a.Name] = obj
	}

	wantChild, ok := childTypes[obj.Type]
	if !ok && len(obj.Children) > 0 {
		return fmt.Errorf("object %q of type %s cannot have children", obj.Name, obj.Type)
	}
	for _, child := range obj.Children {
		if child.Type != wantChild {
			return fmt.Errorf("object %q of type %s cannot nest under %q of type %s", child.Name, child.Type, obj.Name, obj.Type)
		}
		if err := t.index(child, obj.Name, objectNames); err != nil {
			return err
		}
	}

	return nil
}

// Roots returns the root objects in declaration order
func (t *Tree) Roots() []*AccessObject {
	return t.roots
}

// FindAction returns the object that owns the named action
func (t *Tree) FindAction(actionName string) (*AccessObject, error) {
	obj, ok := t.byAction[actionName]
	if !ok {
		return nil, ErrActionNotFound
	}
	return obj, nil
}

// AllActionNames returns the flattened set of every action name in the tree
func (t *Tree) AllActionNames() map[string]struct{} {
	names := make(map[string]struct{}, len(t.byAction))
	for name := range t.byAction {
		names[name] = struct{}{}
	}
	return names
}
