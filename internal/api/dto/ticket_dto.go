package dto

import (
	"time"

	"github.com/deskflow/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"required"`
	CategoryID  string                `json:"category_id" validate:"required"`
	LocationID  string                `json:"location_id" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required"`
	Internal bool   `json:"internal"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LocationResponse view.
type LocationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TicketResponse is the merged ticket view.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	Customer      *UserResponse         `json:"customer,omitempty"`
	Category      *CategoryResponse     `json:"category,omitempty"`
	Location      *LocationResponse     `json:"location,omitempty"`
	AssignedAgent *UserResponse         `json:"assigned_agent"`
	Comments      []CommentResponse     `json:"comments,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketPageResponse is one page of tickets.
type TicketPageResponse struct {
	Items    []TicketResponse `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

// CommentResponse view.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignmentResponse is one ledger record.
type AssignmentResponse struct {
	ID               string                  `json:"id"`
	TicketID         string                  `json:"ticket_id"`
	AgentID          string                  `json:"agent_id"`
	CategoryID       string                  `json:"category_id"`
	Status           domain.AssignmentStatus `json:"status"`
	AssignedAt       time.Time               `json:"assigned_at"`
	NotificationSent bool                    `json:"notification_sent"`
}

// NewTicketResponse maps a view. Internal comments are kept only when
// includeInternal is set.
func NewTicketResponse(v *domain.TicketView, includeInternal bool) TicketResponse {
	resp := TicketResponse{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		Status:        v.Status,
		Priority:      v.Priority,
		Customer:      NewUserResponse(v.Customer),
		AssignedAgent: NewUserResponse(v.AssignedAgent),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.Category != nil {
		resp.Category = &CategoryResponse{ID: v.Category.ID, Name: v.Category.Name}
	}
	if v.Location != nil {
		resp.Location = &LocationResponse{ID: v.Location.ID, Name: v.Location.Name, Type: v.Location.Type}
	}
	resp.Comments = NewCommentResponses(v.Comments, includeInternal)
	return resp
}

// NewCommentResponses maps comments, optionally dropping internal ones.
func NewCommentResponses(comments []domain.Comment, includeInternal bool) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		if c.Internal && !includeInternal {
			continue
		}
		out = append(out, NewCommentResponse(c))
	}
	return out
}

// NewCommentResponse maps one comment.
func NewCommentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		Internal:  c.Internal,
		CreatedAt: c.CreatedAt,
	}
}

// NewAssignmentResponses maps ledger records.
func NewAssignmentResponses(records []domain.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(records))
	for _, a := range records {
		out = append(out, AssignmentResponse{
			ID:               a.ID,
			TicketID:         a.TicketID,
			AgentID:          a.AgentID,
			CategoryID:       a.CategoryID,
			Status:           a.Status,
			AssignedAt:       a.AssignedAt,
			NotificationSent: a.NotificationSent,
		})
	}
	return out
}
