package dispatch

import (
	"context"

	"service-dispatch/internal/domain"
)

// assignmentReader covers the ledger read paths that need no transaction.
type assignmentReader interface {
	GetActive(ctx context.Context, orderID string) (*domain.Assignment, error)
	List(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error)
}

// orderPool lists orders eligible for dispatch.
type orderPool interface {
	ListUnassigned(ctx context.Context, limit, offset int) ([]domain.Order, error)
}

// deliveredNotifier pushes a delivery status back to the checkout subsystem.
// Called only after the local transaction has committed.
type deliveredNotifier interface {
	SetDeliveryStatus(ctx context.Context, orderID, status string) error
}
