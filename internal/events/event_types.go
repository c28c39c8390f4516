package events

import (
	"time"

	"github.com/deskflow/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "comment_added"
	EventUserDeleted         EventType = "user_deleted"
)

// Actor identifies who triggered an event. Empty for system actions.
type Actor struct {
	UserID string          `json:"user_id,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries the created ticket and, when auto-assignment
// picked someone, the assignment.
type TicketCreatedPayload struct {
	Ticket       domain.Ticket `json:"ticket"`
	CustomerName string        `json:"customer_name"`
	AssigneeID   *string       `json:"assignee_id,omitempty"`
	AssignmentID *string       `json:"assignment_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    domain.Ticket       `json:"ticket"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket             domain.Ticket `json:"ticket"`
	AssigneeID         string        `json:"assignee_id"`
	AssignmentID       string        `json:"assignment_id"`
	PreviousAssigneeID *string       `json:"previous_assignee_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	Ticket     domain.Ticket  `json:"ticket"`
	Comment    domain.Comment `json:"comment"`
	AssigneeID *string        `json:"assignee_id,omitempty"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
}
