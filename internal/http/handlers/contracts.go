package handlers

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/agent"
	"service-dispatch/internal/service/dispatch"
)

type agentUsecase interface {
	Get(ctx context.Context, agentID string) (*domain.Agent, error)
	List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error)
	Create(ctx context.Context, a *domain.Agent) (string, error)
	UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (*domain.Agent, error)
	Delete(ctx context.Context, agentID string) error
}

// NewAgentUsecase wires an agent.Service into an agentUsecase.
func NewAgentUsecase(svc *agent.Service) agentUsecase {
	return svc
}

type dispatchUsecase interface {
	Assign(ctx context.Context, p dispatch.AssignParams) (*domain.Assignment, error)
	UpdateAssignment(ctx context.Context, orderID string, patch domain.AssignmentPatch) (*domain.Assignment, error)
	Unassign(ctx context.Context, orderID, actor string) (*domain.Assignment, error)
	BulkUpdate(ctx context.Context, orderIDs []string, patch domain.AssignmentPatch) []dispatch.BulkResult
	GetActive(ctx context.Context, orderID string) (*domain.Assignment, error)
	ListAssignments(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error)
	ListUnassigned(ctx context.Context, limit, offset int) ([]domain.Order, error)
}

// NewDispatchUsecase wires a dispatch.Engine into a dispatchUsecase.
func NewDispatchUsecase(e *dispatch.Engine) dispatchUsecase {
	return e
}
