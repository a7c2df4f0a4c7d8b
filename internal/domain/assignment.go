package domain

import "time"

type (
	// AssignmentStatus represents the lifecycle state of an assignment.
	AssignmentStatus string
	// Priority represents the dispatch priority of an assignment.
	Priority string
)

// List of possible assignment statuses
const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentFailed     AssignmentStatus = "failed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

// List of possible priorities
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var allowedAssignmentStatuses = [...]AssignmentStatus{
	AssignmentAssigned, AssignmentInProgress,
	AssignmentCompleted, AssignmentFailed, AssignmentCancelled,
}

var allowedPriorities = [...]Priority{
	PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent,
}

// Valid checks if the AssignmentStatus is valid
func (s AssignmentStatus) Valid() bool {
	for _, v := range allowedAssignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s AssignmentStatus) Terminal() bool {
	switch s {
	case AssignmentCompleted, AssignmentFailed, AssignmentCancelled:
		return true
	}
	return false
}

// Valid checks if the Priority is valid
func (p Priority) Valid() bool {
	for _, v := range allowedPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// transitions is the single source of truth for legal status edges.
// Terminal states have no outgoing edges.
var transitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentAssigned:   {AssignmentInProgress, AssignmentCancelled, AssignmentFailed},
	AssignmentInProgress: {AssignmentCompleted, AssignmentFailed, AssignmentCancelled},
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to AssignmentStatus) bool {
	for _, v := range transitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// StatusChange is a single append-only entry of an assignment's history.
type StatusChange struct {
	Status    AssignmentStatus
	Actor     string
	Note      string
	ChangedAt time.Time
}

// Assignment is the relation record linking one order to one agent.
// At most one assignment per order may be in a non-terminal status.
type Assignment struct {
	ID          int64
	OrderID     string
	AgentID     string
	Status      AssignmentStatus
	Priority    Priority
	Notes       string
	AssignedAt  time.Time
	CompletedAt *time.Time
	History     []StatusChange
}

// Active reports whether the assignment holds the order.
func (a *Assignment) Active() bool {
	return !a.Status.Terminal()
}

// AssignmentPatch carries optional mutations for an existing assignment.
// A nil field means "do not change" that attribute.
type AssignmentPatch struct {
	Status   *AssignmentStatus
	Priority *Priority
	Notes    *string
	AgentID  *string
	Actor    string
}

// AssignmentFilter narrows List results. Zero values mean "no filter".
type AssignmentFilter struct {
	Status  AssignmentStatus
	AgentID string
	From    time.Time
	To      time.Time
	Limit   *int
	Offset  *int
}
