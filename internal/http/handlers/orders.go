package handlers

import (
	"net/http"

	"service-dispatch/internal/logx"
)

// OrdersHandler serves the dispatch pool read endpoint.
type OrdersHandler struct {
	usecase dispatchUsecase
	logger  logx.Logger
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(logger logx.Logger, uc dispatchUsecase) *OrdersHandler {
	return &OrdersHandler{usecase: uc, logger: logger}
}

// ListUnassigned handles GET /orders/unassigned. Orders come back
// oldest-first so the longest-waiting order is dispatched next.
func (h *OrdersHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	var (
		limit, offset int
		ok            bool
	)
	if limit, ok = intParamOrZero(h.logger, w, r, "limit"); !ok {
		return
	}
	if offset, ok = intParamOrZero(h.logger, w, r, "offset"); !ok {
		return
	}

	list, err := h.usecase.ListUnassigned(r.Context(), limit, offset)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}

func intParamOrZero(logger logx.Logger, w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	p, ok := pageParam(logger, w, r, name)
	if !ok {
		return 0, false
	}
	if p == nil {
		return 0, true
	}
	return *p, true
}
