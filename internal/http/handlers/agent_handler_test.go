package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	testlog "service-dispatch/internal/testutil"
)

type stubAgentUsecase struct {
	getFn    func(ctx context.Context, agentID string) (*domain.Agent, error)
	listFn   func(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error)
	createFn func(ctx context.Context, a *domain.Agent) (string, error)
	updateFn func(ctx context.Context, u domain.PartialAgentUpdate) (*domain.Agent, error)
	deleteFn func(ctx context.Context, agentID string) error
}

func (s *stubAgentUsecase) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	if s.getFn == nil {
		panic("Get not expected in this test")
	}
	return s.getFn(ctx, agentID)
}

func (s *stubAgentUsecase) List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error) {
	if s.listFn == nil {
		panic("List not expected in this test")
	}
	return s.listFn(ctx, f)
}

func (s *stubAgentUsecase) Create(ctx context.Context, a *domain.Agent) (string, error) {
	if s.createFn == nil {
		panic("Create not expected in this test")
	}
	return s.createFn(ctx, a)
}

func (s *stubAgentUsecase) UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (*domain.Agent, error) {
	if s.updateFn == nil {
		panic("UpdatePartial not expected in this test")
	}
	return s.updateFn(ctx, u)
}

func (s *stubAgentUsecase) Delete(ctx context.Context, agentID string) error {
	if s.deleteFn == nil {
		panic("Delete not expected in this test")
	}
	return s.deleteFn(ctx, agentID)
}

func TestAgentHandler_Create_OK(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		createFn: func(_ context.Context, a *domain.Agent) (string, error) {
			require.Equal(t, "Kasun Silva", a.Name)
			require.Equal(t, "kasun@example.com", a.Email)
			require.NotNil(t, a.Capacity)
			require.Equal(t, 3, *a.Capacity)
			return "agent-uuid-1", nil
		},
	}

	body := `{
		"name": "Kasun Silva",
		"email": "kasun@example.com",
		"phone_number": "+94771234567",
		"location": "Colombo",
		"capacity": 3
	}`
	req := httptest.NewRequest(http.MethodPost, "/agents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/agents/agent-uuid-1", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"agent_id":"agent-uuid-1"}`, rr.Body.String())
}

func TestAgentHandler_Create_AllViolationsReported(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		createFn: func(context.Context, *domain.Agent) (string, error) {
			return "", apperr.Validation("name", "email", "phone_number")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/agents", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid input: name, email, phone_number"}`, rr.Body.String())
}

func TestAgentHandler_Create_UnknownField(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/agents", strings.NewReader(`{"nickname":"k"}`))
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), &stubAgentUsecase{})
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAgentHandler_GetByID_OK(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	uc := &stubAgentUsecase{
		getFn: func(_ context.Context, agentID string) (*domain.Agent, error) {
			require.Equal(t, "agent-uuid-1", agentID)
			return &domain.Agent{
				AgentID:   agentID,
				Name:      "Kasun Silva",
				Email:     "kasun@example.com",
				Phone:     "+94771234567",
				Location:  "Colombo",
				Status:    domain.AgentActive,
				Rating:    4.5,
				CreatedAt: created,
				UpdatedAt: created,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/agents/agent-uuid-1", nil)
	req = withURLParam(req, "agentId", "agent-uuid-1")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.GetByID(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"agent_id": "agent-uuid-1",
		"name": "Kasun Silva",
		"email": "kasun@example.com",
		"phone_number": "+94771234567",
		"location": "Colombo",
		"status": "active",
		"current_load": 0,
		"rating": 4.5,
		"completed_deliveries": 0,
		"created_at": "2025-02-01T10:00:00Z",
		"updated_at": "2025-02-01T10:00:00Z"
	}`, rr.Body.String())
}

func TestAgentHandler_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		getFn: func(context.Context, string) (*domain.Agent, error) {
			return nil, apperr.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/agents/missing", nil)
	req = withURLParam(req, "agentId", "missing")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.GetByID(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAgentHandler_List_PassesFilters(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		listFn: func(_ context.Context, f domain.AgentFilter) ([]domain.Agent, error) {
			require.Equal(t, domain.AgentActive, f.Status)
			require.Equal(t, "Colombo", f.Location)
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/agents?status=active&location=Colombo", nil)
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAgentHandler_List_InvalidStatus(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		listFn: func(context.Context, domain.AgentFilter) ([]domain.Agent, error) {
			return nil, apperr.ErrInvalid
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/agents?status=asleep", nil)
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.List(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAgentHandler_Update_OK(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		updateFn: func(_ context.Context, u domain.PartialAgentUpdate) (*domain.Agent, error) {
			require.Equal(t, "agent-uuid-1", u.AgentID)
			require.NotNil(t, u.Status)
			require.Equal(t, domain.AgentBusy, *u.Status)
			require.Nil(t, u.Name)
			return &domain.Agent{AgentID: u.AgentID, Status: domain.AgentBusy}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/agents/agent-uuid-1", strings.NewReader(`{"status":"busy"}`))
	req = withURLParam(req, "agentId", "agent-uuid-1")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Update(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAgentHandler_Update_CapacityBelowLoad(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		updateFn: func(context.Context, domain.PartialAgentUpdate) (*domain.Agent, error) {
			return nil, fmt.Errorf("agent %q capacity 1 below current load: %w",
				"agent-uuid-1", apperr.ErrCapacityExceeded)
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/agents/agent-uuid-1", strings.NewReader(`{"capacity":1}`))
	req = withURLParam(req, "agentId", "agent-uuid-1")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Update(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"capacity below current load"}`, rr.Body.String())
}

func TestAgentHandler_Delete_ActiveLoad(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		deleteFn: func(context.Context, string) error {
			return apperr.ErrConflict
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/agents/agent-uuid-1", nil)
	req = withURLParam(req, "agentId", "agent-uuid-1")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Delete(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"agent has active assignments"}`, rr.Body.String())
}

func TestAgentHandler_Delete_OK(t *testing.T) {
	t.Parallel()

	uc := &stubAgentUsecase{
		deleteFn: func(_ context.Context, agentID string) error {
			require.Equal(t, "agent-uuid-1", agentID)
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/agents/agent-uuid-1", nil)
	req = withURLParam(req, "agentId", "agent-uuid-1")
	rr := httptest.NewRecorder()

	h := NewAgentHandler(testlog.New().Logger(), uc)
	h.Delete(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())
}
