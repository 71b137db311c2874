package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/rights"
	"github.com/accessgate/accessgate/internal/role"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	roleService *role.Service
	evaluator   *rights.Evaluator
	reassigner  *rights.Reassigner
	auditLogger audit.Logger
	authConfig  AuthConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	roleService *role.Service,
	evaluator *rights.Evaluator,
	reassigner *rights.Reassigner,
	auditLogger audit.Logger,
	authConfig AuthConfig,
) *Handler {
	return &Handler{
		roleService: roleService,
		evaluator:   evaluator,
		reassigner:  reassigner,
		auditLogger: auditLogger,
		authConfig:  authConfig,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Administration surface: everything below requires an authenticated
	// caller holding the admin permission.
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Use(h.RequireAdminPermission)

		r.Route("/rights", func(r chi.Router) {
			r.Post("/evaluate", h.EvaluateRights)
			r.Post("/reassign", h.ReassignRights)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
			r.Post("/tree", h.RoleTree)
			r.Put("/{id}", h.UpdateRole)
			r.Delete("/{id}", h.DeleteRole)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "accessgate",
	})
}

// Response envelope helpers. Success responses wrap their result in
// {"payload": ...}; failures carry {"hasError": true, "message": ...}.
// Authorization denials are the one exception: a bare {"message": ...}
// with status 403, which clients treat differently from "not found".

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondPayload(w http.ResponseWriter, status int, payload any) {
	respondJSON(w, status, map[string]any{
		"payload": payload,
	})
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"hasError": true,
		"message":  message,
	})
}

func respondDenied(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusForbidden, map[string]string{
		"message": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
