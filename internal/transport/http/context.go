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

package http

import "context"

type contextKey string

const (
	subjectKey     contextKey = "subject"
	permissionsKey contextKey = "permissions"
)

// GetSubject retrieves the authenticated subject from context.
func GetSubject(ctx context.Context) string {
	if val, ok := ctx.Value(subjectKey).(string); ok {
		return val
	}
	return ""
}

// GetPermissions retrieves the caller's permission list from context.
func GetPermissions(ctx context.Context) []string {
	if val, ok := ctx.Value(permissionsKey).([]string); ok {
		return val
	}
	return nil
}
