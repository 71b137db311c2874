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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The access object tree is reference data provisioned by an
// administrative process, not mutated at runtime. It is declared in a
// YAML file and loaded once at startup:
//
//	objects:
//	  - name: portal
//	    type: APP
//	    actions:
//	      - name: portal.view
//	        type: r
//	        description: Open the portal
//	    children:
//	      - name: users
//	        type: TAB
//	        ...

type treeFile struct {
	Objects []objectSpec `yaml:"objects"`
}

type objectSpec struct {
	Name     string       `yaml:"name"`
	Type     string       `yaml:"type"`
	Actions  []actionSpec `yaml:"actions"`
	Children []objectSpec `yaml:"children"`
}

type actionSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// LoadFile reads and validates an access object tree definition
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read access tree file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Tree from YAML content
func Parse(data []byte) (*Tree, error) {
	var file treeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse access tree: %w", err)
	}
	if len(file.Objects) == 0 {
		return nil, fmt.Errorf("access tree defines no objects")
	}

	roots := make([]*AccessObject, 0, len(file.Objects))
	for _, spec := range file.Objects {
		roots = append(roots, buildObject(spec))
	}

	return New(roots)
}

func buildObject(spec objectSpec) *AccessObject {
	obj := &AccessObject{
		Name: spec.Name,
		Type: ObjectType(spec.Type),
	}
	for _, a := range spec.Actions {
		obj.Actions = append(obj.Actions, Action{
			Name:        a.Name,
			Type:        ActionType(a.Type),
			Description: a.Description,
		})
	}
	for _, c := range spec.Children {
		obj.Children = append(obj.Children, buildObject(c))
	}
	return obj
}
