package orders

import (
	"time"

	"service-dispatch/internal/domain"
)

// Event is a single order event from the checkout stream.
type Event struct {
	OrderID         string             `json:"order_id"`
	Status          string             `json:"status"`
	CustomerName    string             `json:"customer_name"`
	CustomerAddress string             `json:"customer_address"`
	CustomerPhone   string             `json:"customer_phone"`
	TotalAmount     float64            `json:"total_amount"`
	Items           []domain.OrderItem `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
}
