package agent

import (
	"context"

	"service-dispatch/internal/domain"
)

// agentRepository defines storage operations required by the registry.
type agentRepository interface {
	Get(ctx context.Context, agentID string) (*domain.Agent, error)
	List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error)
	Create(ctx context.Context, a *domain.Agent) error
	UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (bool, error)
	Delete(ctx context.Context, agentID string) error
}
