package domain

import "time"

// DeliveryStatus represents the delivery progress of an order.
type DeliveryStatus string

// List of possible order delivery statuses
const (
	DeliveryUnassigned DeliveryStatus = "unassigned"
	DeliveryAssigned   DeliveryStatus = "assigned"
	DeliveryInTransit  DeliveryStatus = "in_transit"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

var allowedDeliveryStatuses = [...]DeliveryStatus{
	DeliveryUnassigned, DeliveryAssigned, DeliveryInTransit,
	DeliveryDelivered, DeliveryCancelled,
}

// Valid checks if the DeliveryStatus is valid
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedDeliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// OrderItem is a single line of an order.
type OrderItem struct {
	Name     string
	Quantity int
	Price    float64
}

// Order is the dispatch view of a checkout order. Full order semantics
// (pricing, payment) belong to the checkout subsystem.
type Order struct {
	OrderID         string
	CustomerName    string
	CustomerAddress string
	CustomerPhone   string
	TotalAmount     float64
	Items           []OrderItem
	DeliveryStatus  DeliveryStatus
	CreatedAt       time.Time
}

// Dispatchable reports whether the order is eligible for assignment.
func (o *Order) Dispatchable() bool {
	return o.DeliveryStatus == DeliveryUnassigned
}
