package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// assignment mutations record who asked for them; authentication lives in
// front of this service, we only carry the name through.
const defaultActor = "api"

func actorFrom(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
		return actor
	}
	return defaultActor
}

// AssignmentHandler serves HTTP endpoints for assignment resources.
type AssignmentHandler struct {
	usecase dispatchUsecase
	logger  logx.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(logger logx.Logger, uc dispatchUsecase) *AssignmentHandler {
	return &AssignmentHandler{usecase: uc, logger: logger}
}

// Create handles POST /assignments.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	asg, err := h.usecase.Assign(r.Context(), req.toParams(actorFrom(r)))
	if err != nil {
		h.writeAssignmentError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, assignmentToResponse(*asg))
}

// Update handles PUT /assignments.
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateAssignmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "orderId is required")
		return
	}

	asg, err := h.usecase.UpdateAssignment(r.Context(), req.OrderID, req.toPatch(actorFrom(r)))
	if err != nil {
		h.writeAssignmentError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(*asg))
}

// BulkUpdate handles POST /assignments/bulk. Per-item failures are reported
// in the result list, the call itself succeeds.
func (h *AssignmentHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if len(req.OrderIDs) == 0 {
		writeError(h.logger, w, r, http.StatusBadRequest, "orderIds is required")
		return
	}

	results := h.usecase.BulkUpdate(r.Context(), req.OrderIDs, req.toPatch(actorFrom(r)))
	writeJSON(h.logger, w, r, http.StatusOK, bulkResultsToResponse(results))
}

// Unassign handles DELETE /assignments/{orderId}.
func (h *AssignmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	asg, err := h.usecase.Unassign(r.Context(), orderID, actorFrom(r))
	if err != nil {
		h.writeAssignmentError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(*asg))
}

// GetByOrder handles GET /assignments/{orderId} and returns the active
// assignment for the order.
func (h *AssignmentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	asg, err := h.usecase.GetActive(r.Context(), orderID)
	if err != nil {
		h.writeAssignmentError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(*asg))
}

// List handles GET /assignments with optional status, agentId and paging
// filters.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.AssignmentFilter{
		Status:  domain.AssignmentStatus(strings.TrimSpace(q.Get("status"))),
		AgentID: strings.TrimSpace(q.Get("agentId")),
	}

	var ok bool
	if f.Limit, ok = pageParam(h.logger, w, r, "limit"); !ok {
		return
	}
	if f.Offset, ok = pageParam(h.logger, w, r, "offset"); !ok {
		return
	}

	list, err := h.usecase.ListAssignments(r.Context(), f)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, assignmentsToResponse(list))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid status filter")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *AssignmentHandler) writeAssignmentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrCapacityExceeded):
		writeError(h.logger, w, r, http.StatusConflict, "agent is at capacity")
	case errors.Is(err, apperr.ErrPrecondition):
		writeError(h.logger, w, r, http.StatusConflict, "agent is not active")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "illegal status transition")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "order already has an active assignment")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// pageParam parses an optional non-negative integer query parameter.
func pageParam(logger logx.Logger, w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		writeError(logger, w, r, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &v, true
}
