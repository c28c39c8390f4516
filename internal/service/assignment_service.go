package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/observability"
	"github.com/deskflow/support-desk/internal/repository"
)

const (
	assignmentSourceAuto   = "auto"
	assignmentSourceManual = "manual"
)

// AssignmentService maintains the assignment ledger: at most one active
// record per ticket, history retained.
type AssignmentService struct {
	uow     repository.UnitOfWork
	repos   repository.Repositories
	metrics *observability.Metrics
	logger  *zap.Logger
	now     Clock
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	UnitOfWork repository.UnitOfWork
	Repos      repository.Repositories
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		uow:     deps.UnitOfWork,
		repos:   deps.Repos,
		metrics: deps.Metrics,
		logger:  logger,
		now:     defaultClock(deps.Clock),
	}
}

// AutoAssignResult describes the outcome of AutoAssign. Agent is nil when the
// category has no eligible agent.
type AutoAssignResult struct {
	Agent      *domain.User
	Assignment *domain.Assignment
}

// Deactivate marks every record of ticketID in one of statuses as COMPLETED.
func (s *AssignmentService) Deactivate(ctx context.Context, repos repository.Repositories, ticketID string, statuses []domain.AssignmentStatus) (int64, error) {
	return repos.Assignments.Deactivate(ctx, ticketID, statuses)
}

// RecordAssignment inserts a new active record. Call it in the same unit of
// work as the preceding Deactivate.
func (s *AssignmentService) RecordAssignment(ctx context.Context, repos repository.Repositories, ticketID, agentID, categoryID string) (*domain.Assignment, error) {
	a := &domain.Assignment{
		TicketID:   ticketID,
		AgentID:    agentID,
		CategoryID: categoryID,
		Status:     domain.AssignmentStatusAssigned,
		AssignedAt: s.now(),
	}
	if err := repos.Assignments.Record(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reassign replaces the active record of ticket with one for agentID, bound to
// the ticket's current category. It returns the new record and the previous
// assignee, if any.
func (s *AssignmentService) Reassign(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, agentID string) (*domain.Assignment, *string, error) {
	var previous *string
	current, err := repos.Assignments.ActiveForTicket(ctx, ticket.ID)
	switch {
	case err == nil:
		previous = strPtr(current.AgentID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, err
	}

	if _, err := s.Deactivate(ctx, repos, ticket.ID, domain.ActiveAssignmentStatuses); err != nil {
		return nil, nil, err
	}
	a, err := s.RecordAssignment(ctx, repos, ticket.ID, agentID, ticket.CategoryID)
	if err != nil {
		return nil, nil, err
	}
	return a, previous, nil
}

// ActiveAssignee returns the agent currently responsible for ticketID.
func (s *AssignmentService) ActiveAssignee(ctx context.Context, ticketID string) (string, bool, error) {
	if _, err := s.repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return "", false, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	a, err := s.repos.Assignments.ActiveForTicket(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err)
	}
	return a.AgentID, true, nil
}

// AutoAssign picks the least loaded eligible agent of the ticket's category
// and assigns the ticket in one unit of work. Finding no agent is not an error.
func (s *AssignmentService) AutoAssign(ctx context.Context, ticketID string) (*AutoAssignResult, error) {
	result := &AutoAssignResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		agent, err := NewLoadIndex(repos).Select(ctx, ticket.CategoryID)
		if err != nil || agent == nil {
			return err
		}
		assignment, _, err := s.Reassign(ctx, repos, ticket, agent.ID)
		if err != nil {
			return err
		}
		result.Agent = agent
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		s.metrics.AssignmentRecorded(assignmentSourceAuto, "failed")
		return nil, mapError(err)
	}
	if result.Agent == nil {
		s.metrics.AssignmentRecorded(assignmentSourceAuto, "no_agent")
		s.logger.Info("no eligible agent for ticket", zap.String("ticket_id", ticketID))
		return result, nil
	}
	s.metrics.AssignmentRecorded(assignmentSourceAuto, "assigned")
	return result, nil
}

// History returns every assignment record of the ticket, newest first.
func (s *AssignmentService) History(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	if _, err := s.repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	records, err := s.repos.Assignments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// MarkNotified flags the record once its agent was notified. Failures are
// logged only.
func (s *AssignmentService) MarkNotified(ctx context.Context, assignmentID string) {
	if err := s.repos.Assignments.MarkNotified(ctx, assignmentID); err != nil {
		s.logger.Warn("mark assignment notified failed", zap.String("assignment_id", assignmentID), zap.Error(err))
	}
}
