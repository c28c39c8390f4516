package dto

import (
	"time"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/service"
)

// TicketStatsResponse counts tickets per status.
type TicketStatsResponse struct {
	Total      int `json:"total_tickets"`
	Open       int `json:"open_tickets"`
	InProgress int `json:"in_progress_tickets"`
	Resolved   int `json:"resolved_tickets"`
	Closed     int `json:"closed_tickets"`
}

// AdminDashboardResponse view.
type AdminDashboardResponse struct {
	TicketStatsResponse
	ActiveAgents int `json:"active_agents"`
}

// AgentDashboardResponse view.
type AgentDashboardResponse struct {
	TicketStatsResponse
	AssignedTickets int `json:"assigned_tickets"`
}

// TicketSummaryResponse is the short form used in dashboards.
type TicketSummaryResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	CategoryID string                `json:"category_id"`
	LocationID string                `json:"location_id"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CustomerDashboardResponse view.
type CustomerDashboardResponse struct {
	Stats         TicketStatsResponse     `json:"stats"`
	RecentTickets []TicketSummaryResponse `json:"recent_tickets"`
}

// StatusCountResponse answers a single status count.
type StatusCountResponse struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

func newTicketStatsResponse(s service.TicketStats) TicketStatsResponse {
	return TicketStatsResponse{
		Total:      s.Total,
		Open:       s.Open,
		InProgress: s.InProgress,
		Resolved:   s.Resolved,
		Closed:     s.Closed,
	}
}

// NewAdminDashboardResponse maps the admin summary.
func NewAdminDashboardResponse(d *service.AdminDashboard) AdminDashboardResponse {
	return AdminDashboardResponse{TicketStatsResponse: newTicketStatsResponse(d.Stats), ActiveAgents: d.ActiveAgents}
}

// NewAgentDashboardResponse maps the agent summary.
func NewAgentDashboardResponse(d *service.AgentDashboard) AgentDashboardResponse {
	return AgentDashboardResponse{TicketStatsResponse: newTicketStatsResponse(d.Stats), AssignedTickets: d.Assigned}
}

// NewCustomerDashboardResponse maps the customer summary.
func NewCustomerDashboardResponse(d *service.CustomerDashboard) CustomerDashboardResponse {
	recent := make([]TicketSummaryResponse, 0, len(d.Recent))
	for _, t := range d.Recent {
		recent = append(recent, TicketSummaryResponse{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			Priority:   t.Priority,
			CategoryID: t.CategoryID,
			LocationID: t.LocationID,
			CreatedAt:  t.CreatedAt,
		})
	}
	return CustomerDashboardResponse{Stats: newTicketStatsResponse(d.Stats), RecentTickets: recent}
}
