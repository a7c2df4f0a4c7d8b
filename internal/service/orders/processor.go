package orders

import (
	"context"
	"errors"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

const streamActor = "checkout-stream"

// Processor applies order events from checkout to the dispatch pool.
type Processor struct {
	dispatch DispatchPort
	store    OrderStore
	factory  *actionFactory
}

// NewProcessor creates a new orders.Processor.
func NewProcessor(dispatch DispatchPort, store OrderStore) *Processor {
	p := &Processor{
		dispatch: dispatch,
		store:    store,
	}
	p.factory = newActionFactory(p.onCreated, p.onCanceled, p.onCompleted)
	return p
}

// Handle processes a single orders.Event. Statuses with no registered
// action are skipped.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	if p.factory == nil {
		return nil
	}
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

// onCreated puts the order into the unassigned pool. An order already known
// keeps its delivery status; only customer details are refreshed.
func (p *Processor) onCreated(ctx context.Context, e Event) error {
	return p.store.Upsert(ctx, &domain.Order{
		OrderID:         e.OrderID,
		CustomerName:    e.CustomerName,
		CustomerAddress: e.CustomerAddress,
		CustomerPhone:   e.CustomerPhone,
		TotalAmount:     e.TotalAmount,
		Items:           e.Items,
		DeliveryStatus:  domain.DeliveryUnassigned,
		CreatedAt:       e.CreatedAt,
	})
}

// onCanceled releases the agent working on the order, then takes the order
// out of the pool for good.
func (p *Processor) onCanceled(ctx context.Context, e Event) error {
	_, err := p.dispatch.Unassign(ctx, e.OrderID, streamActor)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	_, err = p.store.SetDeliveryStatus(ctx, e.OrderID, domain.DeliveryCancelled)
	return err
}

// onCompleted closes the active assignment when checkout already considers
// the order done. Assignments not yet in progress cannot complete, and
// orders with no active assignment need nothing from us.
func (p *Processor) onCompleted(ctx context.Context, e Event) error {
	status := domain.AssignmentCompleted
	_, err := p.dispatch.UpdateAssignment(ctx, e.OrderID, domain.AssignmentPatch{
		Status: &status,
		Actor:  streamActor,
	})
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidTransition) {
		return nil
	}
	return err
}
