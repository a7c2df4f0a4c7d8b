package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// AgentHandler serves HTTP endpoints for delivery agent resources.
type AgentHandler struct {
	usecase agentUsecase
	logger  logx.Logger
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(logger logx.Logger, uc agentUsecase) *AgentHandler {
	return &AgentHandler{usecase: uc, logger: logger}
}

// GetByID handles GET /agents/{agentId}.
func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	a, err := h.usecase.Get(r.Context(), agentID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, agentToResponse(*a))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid agent id")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "agent not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// List handles GET /agents with optional status and location filters.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.AgentFilter{
		Status:   domain.AgentStatus(strings.TrimSpace(q.Get("status"))),
		Location: strings.TrimSpace(q.Get("location")),
	}

	list, err := h.usecase.List(r.Context(), f)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, agentsToResponse(list))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid status filter")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Create handles POST /agents.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	id, err := h.usecase.Create(r.Context(), req.toModel())
	switch {
	case err == nil:
		w.Header().Set("Location", "/agents/"+id)
		writeJSON(h.logger, w, r, http.StatusCreated, map[string]string{"agent_id": id})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "email or phone already exists")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Update handles PUT /agents/{agentId} with partial updates from the body.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	var req updateAgentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.usecase.UpdatePartial(r.Context(), req.toModel(agentID))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, agentToResponse(*a))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, apperr.ErrCapacityExceeded):
		writeError(h.logger, w, r, http.StatusConflict, "capacity below current load")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "email or phone already exists")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "agent not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Delete handles DELETE /agents/{agentId}. Agents still carrying load
// cannot be removed.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	err := h.usecase.Delete(r.Context(), agentID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "deleted"})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid agent id")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "agent has active assignments")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "agent not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage names the offending fields when the service reports
// them, falling back to a generic message.
func validationMessage(err error) string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		return "invalid input: " + strings.Join(ve.Fields, ", ")
	}
	return "invalid input"
}
