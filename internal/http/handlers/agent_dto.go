package handlers

import (
	"time"

	"service-dispatch/internal/domain"
)

type agentDTO struct {
	AgentID             string             `json:"agent_id"`
	Name                string             `json:"name"`
	Email               string             `json:"email"`
	Phone               string             `json:"phone_number"`
	Location            string             `json:"location"`
	Status              domain.AgentStatus `json:"status"`
	Capacity            *int               `json:"capacity,omitempty"`
	CurrentLoad         int                `json:"current_load"`
	Rating              float64            `json:"rating"`
	CompletedDeliveries int                `json:"completed_deliveries"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type createAgentRequest struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Phone    string             `json:"phone_number"`
	Location string             `json:"location"`
	Status   domain.AgentStatus `json:"status"`
	Capacity *int               `json:"capacity"`
}

type updateAgentRequest struct {
	Name     *string             `json:"name,omitempty"`
	Email    *string             `json:"email,omitempty"`
	Phone    *string             `json:"phone_number,omitempty"`
	Location *string             `json:"location,omitempty"`
	Status   *domain.AgentStatus `json:"status,omitempty"`
	Capacity *int                `json:"capacity,omitempty"`
	Rating   *float64            `json:"rating,omitempty"`
}
