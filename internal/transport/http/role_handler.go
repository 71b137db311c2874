package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/accessgate/accessgate/internal/observability/logger"
	"github.com/accessgate/accessgate/internal/rights"
	"github.com/accessgate/accessgate/internal/role"
)

// RoleResponse is the wire shape of a role in list responses
type RoleResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListRoles returns all roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list roles", logger.Error(err))
		respondFailure(w, http.StatusInternalServerError, "failed to list roles")
		return
	}

	payload := make([]RoleResponse, 0, len(roles))
	for _, ro := range roles {
		payload = append(payload, RoleResponse{
			Name:        ro.Name,
			Description: ro.Description,
		})
	}

	respondPayload(w, http.StatusOK, payload)
}

// CreateRoleRequest represents role creation data. Permissions, when
// present, become the role's initial direct grant set.
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ParentName  *string  `json:"parentName,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// CreateRole creates a new role
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondFailure(w, http.StatusBadRequest, "name is required")
		return
	}

	ro, err := h.roleService.Create(r.Context(), req.Name, req.Description, req.ParentName)
	if err != nil {
		switch {
		case errors.Is(err, role.ErrRoleExists):
			respondFailure(w, http.StatusConflict, "role already exists")
		case errors.Is(err, role.ErrParentNotFound):
			respondFailure(w, http.StatusBadRequest, "parent role not found")
		case errors.Is(err, role.ErrCycleDetected):
			respondFailure(w, http.StatusBadRequest, "role hierarchy would contain a cycle")
		default:
			slog.ErrorContext(r.Context(), "failed to create role",
				logger.Error(err),
				logger.RoleName(req.Name),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to create role")
		}
		return
	}

	if len(req.Permissions) > 0 {
		if err := h.reassigner.Reassign(r.Context(), ro.Name, req.Permissions); err != nil {
			var unknown *rights.UnknownActionError
			if errors.As(err, &unknown) {
				// Role exists but holds no grants; the caller retries
				// the assignment with valid names.
				respondFailure(w, http.StatusBadRequest, unknown.Error())
				return
			}
			slog.ErrorContext(r.Context(), "failed to assign initial grants",
				logger.Error(err),
				logger.RoleName(ro.Name),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to assign initial grants")
			return
		}
	}

	respondPayload(w, http.StatusCreated, RoleResponse{
		Name:        ro.Name,
		Description: ro.Description,
	})
}

// UpdateRoleRequest represents role update data
type UpdateRoleRequest struct {
	Description string   `json:"description"`
	Permissions []string `json:"permissions,omitempty"`
}

// UpdateRole changes a role's description and, when permissions are
// supplied, replaces its direct grant set.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.roleService.UpdateDescription(r.Context(), name, req.Description); err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			respondFailure(w, http.StatusNotFound, "role not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update role",
			logger.Error(err),
			logger.RoleName(name),
		)
		respondFailure(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	if req.Permissions != nil {
		if err := h.reassigner.Reassign(r.Context(), name, req.Permissions); err != nil {
			var unknown *rights.UnknownActionError
			if errors.As(err, &unknown) {
				respondFailure(w, http.StatusBadRequest, unknown.Error())
				return
			}
			slog.ErrorContext(r.Context(), "failed to replace grants",
				logger.Error(err),
				logger.RoleName(name),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to replace grants")
			return
		}
	}

	respondPayload(w, http.StatusOK, nil)
}

// RoleTreeRequest selects the hierarchy to return
type RoleTreeRequest struct {
	Name string `json:"name"`
}

// RoleTree returns the flat node list of the role forest tree containing
// the named role; the client rebuilds the hierarchy from parentName links.
func (h *Handler) RoleTree(w http.ResponseWriter, r *http.Request) {
	var req RoleTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondFailure(w, http.StatusBadRequest, "name is required")
		return
	}

	nodes, err := h.roleService.Tree(r.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, role.ErrRoleNotFound):
			respondFailure(w, http.StatusNotFound, "role not found")
		case errors.Is(err, role.ErrCycleDetected):
			slog.ErrorContext(r.Context(), "role hierarchy corrupted",
				logger.Error(err),
				logger.RoleName(req.Name),
			)
			respondFailure(w, http.StatusInternalServerError, "role hierarchy contains a cycle")
		default:
			slog.ErrorContext(r.Context(), "failed to build role tree",
				logger.Error(err),
				logger.RoleName(req.Name),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to build role tree")
		}
		return
	}

	respondPayload(w, http.StatusOK, nodes)
}

// DeleteRole removes a role without children
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")

	if err := h.roleService.Delete(r.Context(), name); err != nil {
		switch {
		case errors.Is(err, role.ErrRoleNotFound):
			respondFailure(w, http.StatusNotFound, "role not found")
		case errors.Is(err, role.ErrRoleHasChildren):
			respondFailure(w, http.StatusConflict, "role has child roles")
		default:
			slog.ErrorContext(r.Context(), "failed to delete role",
				logger.Error(err),
				logger.RoleName(name),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to delete role")
		}
		return
	}

	respondPayload(w, http.StatusOK, nil)
}
