package service

import (
	"context"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

const recentTicketsLimit = 5

// TicketStats counts tickets per status.
type TicketStats struct {
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Closed     int
}

func newTicketStats(counts map[domain.TicketStatus]int) TicketStats {
	stats := TicketStats{
		Open:       counts[domain.TicketStatusOpen],
		InProgress: counts[domain.TicketStatusInProgress],
		Resolved:   counts[domain.TicketStatusResolved],
		Closed:     counts[domain.TicketStatusClosed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats
}

// AdminDashboard summarizes the whole desk.
type AdminDashboard struct {
	Stats        TicketStats
	ActiveAgents int
}

// AgentDashboard summarizes the tickets an agent currently holds.
type AgentDashboard struct {
	Assigned int
	Stats    TicketStats
}

// CustomerDashboard summarizes a customer's own tickets.
type CustomerDashboard struct {
	Stats  TicketStats
	Recent []domain.Ticket
}

// DashboardService derives read-only summaries from tickets and the
// assignment ledger.
type DashboardService struct {
	repos repository.Repositories
}

// DashboardDependencies bundles collaborators.
type DashboardDependencies struct {
	Repos repository.Repositories
}

// NewDashboardService creates the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{repos: deps.Repos}
}

// CountByStatus returns how many tickets are in status.
func (s *DashboardService) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	if !status.Valid() {
		return 0, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	counts, err := s.repos.Tickets.CountByStatus(ctx, repository.TicketFilter{Status: &status})
	if err != nil {
		return 0, mapError(err)
	}
	return counts[status], nil
}

// Admin counts every ticket by status and the agents holding active work.
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	counts, err := s.repos.Tickets.CountByStatus(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, mapError(err)
	}
	agents, err := s.repos.Assignments.CountActiveAgents(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &AdminDashboard{Stats: newTicketStats(counts), ActiveAgents: agents}, nil
}

// Agent counts the tickets on which agentID holds the active assignment.
func (s *DashboardService) Agent(ctx context.Context, agentID string) (*AgentDashboard, error) {
	counts, err := s.repos.Tickets.CountByStatus(ctx, repository.TicketFilter{AssigneeID: &agentID})
	if err != nil {
		return nil, mapError(err)
	}
	stats := newTicketStats(counts)
	return &AgentDashboard{Assigned: stats.Total, Stats: stats}, nil
}

// Customer counts the customer's tickets and returns the newest few.
func (s *DashboardService) Customer(ctx context.Context, customerID string) (*CustomerDashboard, error) {
	filter := repository.TicketFilter{CustomerID: &customerID}
	counts, err := s.repos.Tickets.CountByStatus(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	filter.PageSize = recentTicketsLimit
	recent, _, err := s.repos.Tickets.Search(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	if recent == nil {
		recent = []domain.Ticket{}
	}
	return &CustomerDashboard{Stats: newTicketStats(counts), Recent: recent}, nil
}
