package app

import (
	"context"
	"time"

	ordersgw "service-dispatch/internal/gateway/orders"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/transport/kafka"
)

type ordersHandler interface {
	Handle(ctx context.Context, e orders.Event) error
}

type ordersGateway interface {
	GetByID(ctx context.Context, id string) (*ordersgw.Order, error)
}

// makeOrdersKafka builds the worker's event handler. When the checkout
// gateway is configured, the order status is re-read from checkout before
// acting: the stream can lag behind the source of truth.
func makeOrdersKafka(p ordersHandler, gw ordersGateway) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		if gw == nil {
			return p.Handle(ctx, event)
		}

		gwCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		ord, err := gw.GetByID(gwCtx, event.OrderID)
		if err != nil {
			return err
		}
		// unknown to checkout: nothing to dispatch
		if ord == nil {
			return nil
		}

		event.Status = ord.Status
		if !ord.CreatedAt.IsZero() {
			event.CreatedAt = ord.CreatedAt
		}
		return p.Handle(ctx, event)
	}
}
