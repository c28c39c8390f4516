package domain

import "time"

// AssignmentStatus captures whether a ledger record is the ticket's current assignment.
type AssignmentStatus string

const (
	// AssignmentStatusAssigned marks the single active record of a ticket.
	AssignmentStatusAssigned AssignmentStatus = "ASSIGNED"
	// AssignmentStatusActive is a legacy active marker; it is cleared like ASSIGNED.
	AssignmentStatusActive    AssignmentStatus = "ACTIVE"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
)

// ActiveAssignmentStatuses lists every status treated as "currently assigned".
var ActiveAssignmentStatuses = []AssignmentStatus{AssignmentStatusAssigned, AssignmentStatusActive}

// IsActive reports whether the status denotes the current assignment.
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusActive
}

// Assignment is one entry of a ticket's assignment ledger.
type Assignment struct {
	ID               string
	TicketID         string
	AgentID          string
	CategoryID       string
	Status           AssignmentStatus
	AssignedAt       time.Time
	NotificationSent bool
}
