package orders

import (
	"context"

	"service-dispatch/internal/domain"
)

// DispatchPort abstracts the subset of dispatch operations needed by the
// Processor when handling order events.
type DispatchPort interface {
	Unassign(ctx context.Context, orderID, actor string) (*domain.Assignment, error)
	UpdateAssignment(ctx context.Context, orderID string, patch domain.AssignmentPatch) (*domain.Assignment, error)
}

// OrderStore abstracts the order pool writes driven by the event stream.
type OrderStore interface {
	Upsert(ctx context.Context, o *domain.Order) error
	SetDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) (bool, error)
}
