package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/accessgate/accessgate/internal/observability/logger"
	"github.com/accessgate/accessgate/internal/rights"
	"github.com/accessgate/accessgate/internal/role"
)

// EvaluateRightsRequest selects the role to evaluate
type EvaluateRightsRequest struct {
	RoleName string `json:"roleName"`
}

// EvaluateRights computes the effective grant tree for a role. The
// payload mirrors the access object tree; each action carries ownGrant
// and parentGrant flags.
func (h *Handler) EvaluateRights(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoleName == "" {
		respondFailure(w, http.StatusBadRequest, "roleName is required")
		return
	}

	tree, err := h.evaluator.Evaluate(r.Context(), req.RoleName)
	if err != nil {
		switch {
		case errors.Is(err, role.ErrRoleNotFound):
			respondFailure(w, http.StatusNotFound, "role not found")
		case errors.Is(err, role.ErrCycleDetected):
			slog.ErrorContext(r.Context(), "role hierarchy corrupted",
				logger.Error(err),
				logger.RoleName(req.RoleName),
			)
			respondFailure(w, http.StatusInternalServerError, "role hierarchy contains a cycle")
		default:
			slog.ErrorContext(r.Context(), "failed to evaluate rights",
				logger.Error(err),
				logger.RoleName(req.RoleName),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to evaluate rights")
		}
		return
	}

	respondPayload(w, http.StatusOK, tree)
}

// ReassignRightsRequest replaces a role's full direct grant set
type ReassignRightsRequest struct {
	RoleName    string   `json:"roleName"`
	ActionNames []string `json:"actionNames"`
}

// ReassignRights replaces the direct grants of a role. The request always
// carries the complete desired set; granting or revoking a single action
// is expressed by the caller as a full replacement.
func (h *Handler) ReassignRights(w http.ResponseWriter, r *http.Request) {
	var req ReassignRightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoleName == "" {
		respondFailure(w, http.StatusBadRequest, "roleName is required")
		return
	}

	if err := h.reassigner.Reassign(r.Context(), req.RoleName, req.ActionNames); err != nil {
		var unknown *rights.UnknownActionError
		switch {
		case errors.Is(err, role.ErrRoleNotFound):
			respondFailure(w, http.StatusNotFound, "role not found")
		case errors.As(err, &unknown):
			respondFailure(w, http.StatusBadRequest, unknown.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to reassign rights",
				logger.Error(err),
				logger.RoleName(req.RoleName),
				logger.ActionCount(len(req.ActionNames)),
			)
			respondFailure(w, http.StatusInternalServerError, "failed to reassign rights")
		}
		return
	}

	respondPayload(w, http.StatusOK, nil)
}
