package domain

import (
	"regexp"
	"time"
)

// AgentStatus represents the status of a delivery agent.
type AgentStatus string

// List of possible agent statuses
const (
	AgentActive   AgentStatus = "active"
	AgentInactive AgentStatus = "inactive"
	AgentBusy     AgentStatus = "busy"
)

var allowedAgentStatuses = [...]AgentStatus{
	AgentActive, AgentInactive, AgentBusy,
}

// Valid checks if the AgentStatus is valid
func (s AgentStatus) Valid() bool {
	for _, v := range allowedAgentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Agent represents a delivery agent tracked by the registry.
// CurrentLoad is the count of non-terminal assignments referencing the agent
// and is maintained only inside dispatch transactions.
type Agent struct {
	AgentID             string
	Name                string
	Email               string
	Phone               string
	Location            string
	Status              AgentStatus
	Capacity            *int
	CurrentLoad         int
	Rating              float64
	CompletedDeliveries int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PartialAgentUpdate carries optional fields to update an agent.
// A nil field means "do not change" that attribute.
type PartialAgentUpdate struct {
	AgentID  string
	Name     *string
	Email    *string
	Phone    *string
	Location *string
	Status   *AgentStatus
	Capacity *int
	Rating   *float64
}

// AgentFilter narrows ListAgents results. Zero values mean "no filter".
type AgentFilter struct {
	Status   AgentStatus
	Location string
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// reEmail checks the rough RFC shape local@domain.tld
var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}

// ValidateEmail validates the email format
func ValidateEmail(s string) bool {
	return reEmail.MatchString(s)
}
