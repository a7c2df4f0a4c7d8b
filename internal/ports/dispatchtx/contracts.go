package dispatchtx

import (
	"context"

	"service-dispatch/internal/domain"
)

// Repository is the set of storage operations available inside one dispatch
// transaction. The order row lock taken by GetOrderForUpdate is the
// serialization point for everything touching the same orderId.
type Repository interface {
	GetOrderForUpdate(ctx context.Context, orderID string) (*domain.Order, error)
	GetAgentForUpdate(ctx context.Context, agentID string) (*domain.Agent, error)
	GetActiveAssignment(ctx context.Context, orderID string) (*domain.Assignment, error)

	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	UpdateAssignment(ctx context.Context, a *domain.Assignment) error
	AppendEvent(ctx context.Context, assignmentID int64, ev domain.StatusChange) error
	AssignmentHistory(ctx context.Context, assignmentID int64) ([]domain.StatusChange, error)

	AdjustAgentLoad(ctx context.Context, agentID string, delta int) error
	IncrementCompletedDeliveries(ctx context.Context, agentID string) error
	SetOrderDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
