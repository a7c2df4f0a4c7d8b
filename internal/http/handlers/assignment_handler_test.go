package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
	testlog "service-dispatch/internal/testutil"
)

type stubDispatchUsecase struct {
	assignFn         func(ctx context.Context, p dispatch.AssignParams) (*domain.Assignment, error)
	updateFn         func(ctx context.Context, orderID string, patch domain.AssignmentPatch) (*domain.Assignment, error)
	unassignFn       func(ctx context.Context, orderID, actor string) (*domain.Assignment, error)
	bulkFn           func(ctx context.Context, orderIDs []string, patch domain.AssignmentPatch) []dispatch.BulkResult
	getActiveFn      func(ctx context.Context, orderID string) (*domain.Assignment, error)
	listFn           func(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error)
	listUnassignedFn func(ctx context.Context, limit, offset int) ([]domain.Order, error)
}

func (s *stubDispatchUsecase) Assign(ctx context.Context, p dispatch.AssignParams) (*domain.Assignment, error) {
	if s.assignFn == nil {
		panic("Assign not expected in this test")
	}
	return s.assignFn(ctx, p)
}

func (s *stubDispatchUsecase) UpdateAssignment(ctx context.Context, orderID string, patch domain.AssignmentPatch) (*domain.Assignment, error) {
	if s.updateFn == nil {
		panic("UpdateAssignment not expected in this test")
	}
	return s.updateFn(ctx, orderID, patch)
}

func (s *stubDispatchUsecase) Unassign(ctx context.Context, orderID, actor string) (*domain.Assignment, error) {
	if s.unassignFn == nil {
		panic("Unassign not expected in this test")
	}
	return s.unassignFn(ctx, orderID, actor)
}

func (s *stubDispatchUsecase) BulkUpdate(ctx context.Context, orderIDs []string, patch domain.AssignmentPatch) []dispatch.BulkResult {
	if s.bulkFn == nil {
		panic("BulkUpdate not expected in this test")
	}
	return s.bulkFn(ctx, orderIDs, patch)
}

func (s *stubDispatchUsecase) GetActive(ctx context.Context, orderID string) (*domain.Assignment, error) {
	if s.getActiveFn == nil {
		panic("GetActive not expected in this test")
	}
	return s.getActiveFn(ctx, orderID)
}

func (s *stubDispatchUsecase) ListAssignments(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error) {
	if s.listFn == nil {
		panic("ListAssignments not expected in this test")
	}
	return s.listFn(ctx, f)
}

func (s *stubDispatchUsecase) ListUnassigned(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	if s.listUnassignedFn == nil {
		panic("ListUnassigned not expected in this test")
	}
	return s.listUnassignedFn(ctx, limit, offset)
}

func withURLParam(r *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAssignmentHandler_Create_OK(t *testing.T) {
	t.Parallel()

	assignedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	uc := &stubDispatchUsecase{
		assignFn: func(_ context.Context, p dispatch.AssignParams) (*domain.Assignment, error) {
			require.Equal(t, "CBC0001", p.OrderID)
			require.Equal(t, "DA01", p.AgentID)
			require.Equal(t, domain.PriorityHigh, p.Priority)
			require.Equal(t, "dispatcher-1", p.Actor)
			return &domain.Assignment{
				OrderID:    p.OrderID,
				AgentID:    p.AgentID,
				Status:     domain.AssignmentAssigned,
				Priority:   p.Priority,
				AssignedAt: assignedAt,
			}, nil
		},
	}

	body := `{"orderId":"CBC0001","deliveryAgentId":"DA01","priority":"high"}`
	req := httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "dispatcher-1")
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{
		"orderId": "CBC0001",
		"deliveryAgentId": "DA01",
		"status": "assigned",
		"priority": "high",
		"assignedAt": "2025-03-01T12:00:00Z"
	}`, rr.Body.String())
}

func TestAssignmentHandler_Create_Conflict(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		assignFn: func(context.Context, dispatch.AssignParams) (*domain.Assignment, error) {
			return nil, apperr.ErrConflict
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/assignments",
		strings.NewReader(`{"orderId":"CBC0001","deliveryAgentId":"DA01"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"order already has an active assignment"}`, rr.Body.String())
}

func TestAssignmentHandler_Create_CapacityExceeded(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		assignFn: func(context.Context, dispatch.AssignParams) (*domain.Assignment, error) {
			return nil, apperr.ErrCapacityExceeded
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/assignments",
		strings.NewReader(`{"orderId":"CBC0001","deliveryAgentId":"DA01"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"agent is at capacity"}`, rr.Body.String())
}

func TestAssignmentHandler_Create_ValidationFields(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		assignFn: func(context.Context, dispatch.AssignParams) (*domain.Assignment, error) {
			return nil, apperr.Validation("orderId", "deliveryAgentId")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid input: orderId, deliveryAgentId"}`, rr.Body.String())
}

func TestAssignmentHandler_Create_BadJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader(`{"orderId":`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), &stubDispatchUsecase{})
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssignmentHandler_Update_Transition(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		updateFn: func(_ context.Context, orderID string, patch domain.AssignmentPatch) (*domain.Assignment, error) {
			require.Equal(t, "CBC0001", orderID)
			require.NotNil(t, patch.Status)
			require.Equal(t, domain.AssignmentInProgress, *patch.Status)
			return &domain.Assignment{
				OrderID:  orderID,
				AgentID:  "DA01",
				Status:   *patch.Status,
				Priority: domain.PriorityNormal,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/assignments",
		strings.NewReader(`{"orderId":"CBC0001","status":"in_progress"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Update(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAssignmentHandler_Update_MissingOrderID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPut, "/assignments", strings.NewReader(`{"status":"in_progress"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), &stubDispatchUsecase{})
	h.Update(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"orderId is required"}`, rr.Body.String())
}

func TestAssignmentHandler_Update_IllegalTransition(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		updateFn: func(context.Context, string, domain.AssignmentPatch) (*domain.Assignment, error) {
			return nil, apperr.ErrInvalidTransition
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/assignments",
		strings.NewReader(`{"orderId":"CBC0001","status":"completed"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Update(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"illegal status transition"}`, rr.Body.String())
}

func TestAssignmentHandler_Unassign_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		unassignFn: func(_ context.Context, orderID, actor string) (*domain.Assignment, error) {
			require.Equal(t, "CBC0001", orderID)
			require.Equal(t, "api", actor)
			return &domain.Assignment{OrderID: orderID, AgentID: "DA01", Status: domain.AssignmentCancelled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/assignments/CBC0001", nil)
	req = withURLParam(req, "orderId", "CBC0001")
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Unassign(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAssignmentHandler_Unassign_NotFound(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		unassignFn: func(context.Context, string, string) (*domain.Assignment, error) {
			return nil, apperr.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/assignments/CBC0404", nil)
	req = withURLParam(req, "orderId", "CBC0404")
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.Unassign(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAssignmentHandler_BulkUpdate_PartialSuccess(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		bulkFn: func(_ context.Context, orderIDs []string, patch domain.AssignmentPatch) []dispatch.BulkResult {
			require.Equal(t, []string{"CBC0001", "CBC0002"}, orderIDs)
			return []dispatch.BulkResult{
				{OrderID: "CBC0001", Assignment: &domain.Assignment{
					OrderID: "CBC0001", AgentID: "DA01", Status: domain.AssignmentCancelled,
					Priority: domain.PriorityNormal,
				}},
				{OrderID: "CBC0002", Err: apperr.ErrNotFound},
			}
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/assignments/bulk",
		strings.NewReader(`{"orderIds":["CBC0001","CBC0002"],"status":"cancelled"}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.BulkUpdate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[
		{
			"orderId": "CBC0001",
			"assignment": {
				"orderId": "CBC0001",
				"deliveryAgentId": "DA01",
				"status": "cancelled",
				"priority": "normal",
				"assignedAt": "0001-01-01T00:00:00Z"
			}
		},
		{"orderId": "CBC0002", "error": "not found"}
	]`, rr.Body.String())
}

func TestAssignmentHandler_BulkUpdate_EmptyIDs(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/assignments/bulk", strings.NewReader(`{"orderIds":[]}`))
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), &stubDispatchUsecase{})
	h.BulkUpdate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssignmentHandler_List_Filters(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		listFn: func(_ context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error) {
			require.Equal(t, domain.AssignmentAssigned, f.Status)
			require.Equal(t, "DA01", f.AgentID)
			require.NotNil(t, f.Limit)
			require.Equal(t, 10, *f.Limit)
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/assignments?status=assigned&agentId=DA01&limit=10", nil)
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), uc)
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAssignmentHandler_List_InvalidLimit(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/assignments?limit=-1", nil)
	rr := httptest.NewRecorder()

	h := NewAssignmentHandler(testlog.New().Logger(), &stubDispatchUsecase{})
	h.List(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOrdersHandler_ListUnassigned(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	uc := &stubDispatchUsecase{
		listUnassignedFn: func(_ context.Context, limit, offset int) ([]domain.Order, error) {
			require.Equal(t, 0, limit)
			require.Equal(t, 0, offset)
			return []domain.Order{{
				OrderID:        "CBC0001",
				CustomerName:   "Nimal Perera",
				DeliveryStatus: domain.DeliveryUnassigned,
				CreatedAt:      created,
			}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/unassigned", nil)
	rr := httptest.NewRecorder()

	h := NewOrdersHandler(testlog.New().Logger(), uc)
	h.ListUnassigned(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{
		"orderId": "CBC0001",
		"customerName": "Nimal Perera",
		"customerAddress": "",
		"customerPhone": "",
		"totalAmount": 0,
		"deliveryStatus": "unassigned",
		"createdAt": "2025-03-01T09:00:00Z"
	}]`, rr.Body.String())
}
