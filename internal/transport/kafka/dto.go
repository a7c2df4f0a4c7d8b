package kafka

import (
	"strings"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/orders"
)

// EventDTO is the wire form of an order event.
type EventDTO struct {
	OrderID         string         `json:"order_id"`
	Status          string         `json:"status"`
	CustomerName    string         `json:"customer_name"`
	CustomerAddress string         `json:"customer_address"`
	CustomerPhone   string         `json:"customer_phone"`
	TotalAmount     float64        `json:"total_amount"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
}

// OrderItemDTO is a single line item on the wire.
type OrderItemDTO struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ToDomain converts EventDTO to orders.Event.
func ToDomain(dto EventDTO) orders.Event {
	items := make([]domain.OrderItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, domain.OrderItem{
			Name:     strings.TrimSpace(it.Name),
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return orders.Event{
		OrderID:         strings.TrimSpace(dto.OrderID),
		Status:          strings.TrimSpace(dto.Status),
		CustomerName:    strings.TrimSpace(dto.CustomerName),
		CustomerAddress: strings.TrimSpace(dto.CustomerAddress),
		CustomerPhone:   strings.TrimSpace(dto.CustomerPhone),
		TotalAmount:     dto.TotalAmount,
		Items:           items,
		CreatedAt:       dto.CreatedAt,
	}
}
