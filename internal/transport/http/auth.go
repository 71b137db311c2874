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

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/observability/logger"
)

// AuthConfig holds bearer token validation settings
type AuthConfig struct {
	JWTSecret       string
	AdminPermission string
}

// Claims are the token claims accessgate understands. Identity is
// resolved by the upstream identity provider; this service only checks
// the permission list it was handed.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token carries the named permission
func (c *Claims) HasPermission(name string) bool {
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// AuthMiddleware validates the bearer token and stores the resolved
// subject and permissions in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondFailure(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(h.authConfig.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			respondFailure(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		ctx = context.WithValue(ctx, permissionsKey, claims.Permissions)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminPermission rejects authenticated callers that lack the
// administration permission. The 403 body shape is distinct from "not
// found" failures so clients can tell denial apart from absence.
func (h *Handler) RequireAdminPermission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasPermission(r.Context(), h.authConfig.AdminPermission) {
			subject := GetSubject(r.Context())
			slog.WarnContext(r.Context(), "admin permission denied",
				logger.SubjectID(subject),
				logger.Path(r.URL.Path),
			)
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeAccessDenied,
				ActorID:   subject,
				Resource:  r.URL.Path,
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
			})
			respondDenied(w, "access restricted")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func hasPermission(ctx context.Context, name string) bool {
	perms, ok := ctx.Value(permissionsKey).([]string)
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == name {
			return true
		}
	}
	return false
}
