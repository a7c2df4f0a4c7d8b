package handlers

import (
	"time"

	"service-dispatch/internal/domain"
)

type createAssignmentRequest struct {
	OrderID  string          `json:"orderId"`
	AgentID  string          `json:"deliveryAgentId"`
	Priority domain.Priority `json:"priority"`
	Notes    string          `json:"notes"`
}

type updateAssignmentRequest struct {
	OrderID  string                   `json:"orderId"`
	Status   *domain.AssignmentStatus `json:"status,omitempty"`
	Priority *domain.Priority         `json:"priority,omitempty"`
	Notes    *string                  `json:"notes,omitempty"`
	AgentID  *string                  `json:"deliveryAgentId,omitempty"`
}

type bulkUpdateRequest struct {
	OrderIDs []string                 `json:"orderIds"`
	Status   *domain.AssignmentStatus `json:"status,omitempty"`
	Priority *domain.Priority         `json:"priority,omitempty"`
	Notes    *string                  `json:"notes,omitempty"`
	AgentID  *string                  `json:"deliveryAgentId,omitempty"`
}

type statusChangeDTO struct {
	Status    domain.AssignmentStatus `json:"status"`
	Actor     string                  `json:"actor,omitempty"`
	Note      string                  `json:"note,omitempty"`
	ChangedAt time.Time               `json:"changedAt"`
}

type assignmentDTO struct {
	OrderID     string                  `json:"orderId"`
	AgentID     string                  `json:"deliveryAgentId"`
	Status      domain.AssignmentStatus `json:"status"`
	Priority    domain.Priority         `json:"priority"`
	Notes       string                  `json:"notes,omitempty"`
	AssignedAt  time.Time               `json:"assignedAt"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
	History     []statusChangeDTO       `json:"history,omitempty"`
}

type bulkResultDTO struct {
	OrderID    string         `json:"orderId"`
	Assignment *assignmentDTO `json:"assignment,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type orderDTO struct {
	OrderID         string                `json:"orderId"`
	CustomerName    string                `json:"customerName"`
	CustomerAddress string                `json:"customerAddress"`
	CustomerPhone   string                `json:"customerPhone"`
	TotalAmount     float64               `json:"totalAmount"`
	Items           []orderItemDTO        `json:"items,omitempty"`
	DeliveryStatus  domain.DeliveryStatus `json:"deliveryStatus"`
	CreatedAt       time.Time             `json:"createdAt"`
}

type orderItemDTO struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
