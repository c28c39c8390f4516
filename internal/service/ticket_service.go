package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/observability"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// TicketService owns the ticket lifecycle: creation with auto-assignment,
// status updates and manual assignment. Events are published only after the
// unit of work commits.
type TicketService struct {
	uow         repository.UnitOfWork
	repos       repository.Repositories
	assignments *AssignmentService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         Clock
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	UnitOfWork  repository.UnitOfWork
	Repos       repository.Repositories
	Assignments *AssignmentService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload. An empty Priority
// defaults to MEDIUM.
type TicketCreateInput struct {
	Title       string
	Description string
	CategoryID  string
	LocationID  string
	Priority    domain.TicketPriority
}

// TicketPage is one page of search results.
type TicketPage struct {
	Items    []domain.TicketView
	Page     int
	PageSize int
	Total    int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		uow:         deps.UnitOfWork,
		repos:       deps.Repos,
		assignments: deps.Assignments,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         defaultClock(deps.Clock),
	}
}

// CreateTicket persists an OPEN ticket for customerID and then tries to
// auto-assign it. A failed assignment leaves the ticket unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, customerID string, input TicketCreateInput) (*domain.TicketView, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	var (
		ticket   *domain.Ticket
		customer *domain.User
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		customer, err = repos.Users.GetByID(ctx, customerID)
		if err != nil {
			return notFoundOr(err, "customer", map[string]any{"customer_id": customerID})
		}
		if _, err := repos.Categories.GetByID(ctx, input.CategoryID); err != nil {
			return notFoundOr(err, "category", map[string]any{"category_id": input.CategoryID})
		}
		if _, err := repos.Locations.GetByID(ctx, input.LocationID); err != nil {
			return notFoundOr(err, "location", map[string]any{"location_id": input.LocationID})
		}

		now := s.now()
		ticket = &domain.Ticket{
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			Status:      domain.TicketStatusOpen,
			Priority:    priority,
			CategoryID:  input.CategoryID,
			CustomerID:  customerID,
			LocationID:  input.LocationID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repos.Tickets.Create(ctx, ticket)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.metrics.TicketCreated()

	payload := events.TicketCreatedPayload{Ticket: *ticket, CustomerName: customer.Name}
	result, err := s.assignments.AutoAssign(ctx, ticket.ID)
	if err != nil {
		s.logger.Error("auto-assignment failed; ticket left unassigned",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	} else if result.Agent != nil {
		payload.AssigneeID = strPtr(result.Agent.ID)
		payload.AssignmentID = strPtr(result.Assignment.ID)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: customer.ID, Role: customer.Role},
		Payload:  payload,
	})
	return s.GetTicket(ctx, ticket.ID)
}

// UpdateStatus sets the ticket status. Every status may follow every other
// one; setting the current status again still refreshes updated_at and
// notifies.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, actorID string) (*domain.TicketView, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}

	var (
		ticket    *domain.Ticket
		actor     *domain.User
		oldStatus domain.TicketStatus
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		actor, err = repos.Users.GetByID(ctx, actorID)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": actorID})
		}
		oldStatus = ticket.Status
		ticket.Status = newStatus
		ticket.UpdatedAt = s.now()
		return repos.Tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.metrics.StatusChanged(string(newStatus))

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			Ticket:    *ticket,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return s.GetTicket(ctx, ticket.ID)
}

// AssignToAgent makes agentID the only active assignee of the ticket. The
// ticket row stays locked from the read until commit, so concurrent calls
// on one ticket apply one after the other.
func (s *TicketService) AssignToAgent(ctx context.Context, ticketID, agentID string) (*domain.TicketView, error) {
	var (
		ticket     *domain.Ticket
		assignment *domain.Assignment
		previous   *string
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		agent, err := repos.Users.GetByID(ctx, agentID)
		if err != nil {
			return notFoundOr(err, "agent", map[string]any{"agent_id": agentID})
		}
		if agent.Role != domain.UserRoleAgent {
			return apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		assignment, previous, err = s.assignments.Reassign(ctx, repos, ticket, agent.ID)
		if err != nil {
			return err
		}
		ticket.UpdatedAt = s.now()
		return repos.Tickets.Update(ctx, ticket)
	})
	if err != nil {
		s.metrics.AssignmentRecorded(assignmentSourceManual, "failed")
		return nil, mapError(err)
	}
	s.metrics.AssignmentRecorded(assignmentSourceManual, "assigned")

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			Ticket:             *ticket,
			AssigneeID:         assignment.AgentID,
			AssignmentID:       assignment.ID,
			PreviousAssigneeID: previous,
		},
	})
	return s.GetTicket(ctx, ticket.ID)
}

// GetTicket returns the ticket merged with its references, active agent and
// comments.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.TicketView, error) {
	ticket, err := s.repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	view, err := s.buildView(ctx, *ticket)
	if err != nil {
		return nil, mapError(err)
	}
	comments, err := s.repos.Comments.ListByTicket(ctx, ticket.ID, true)
	if err != nil {
		return nil, mapError(err)
	}
	view.Comments = comments
	return view, nil
}

// SearchTickets returns one page of tickets matching filter.
func (s *TicketService) SearchTickets(ctx context.Context, filter repository.TicketFilter) (*TicketPage, error) {
	tickets, total, err := s.repos.Tickets.Search(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	page := &TicketPage{
		Items:    make([]domain.TicketView, 0, len(tickets)),
		Page:     filter.PageNumber(),
		PageSize: filter.Limit(),
		Total:    total,
	}
	for _, t := range tickets {
		view, err := s.buildView(ctx, t)
		if err != nil {
			return nil, mapError(err)
		}
		page.Items = append(page.Items, *view)
	}
	return page, nil
}

// ActiveAssignee returns the agent currently assigned to ticketID.
func (s *TicketService) ActiveAssignee(ctx context.Context, ticketID string) (string, bool, error) {
	return s.assignments.ActiveAssignee(ctx, ticketID)
}

// buildView resolves the references of ticket. The assigned agent is derived
// from the ledger on every read.
func (s *TicketService) buildView(ctx context.Context, ticket domain.Ticket) (*domain.TicketView, error) {
	view := &domain.TicketView{Ticket: ticket}

	var err error
	if view.Customer, err = optional(s.repos.Users.GetByID(ctx, ticket.CustomerID)); err != nil {
		return nil, err
	}
	if view.Category, err = optional(s.repos.Categories.GetByID(ctx, ticket.CategoryID)); err != nil {
		return nil, err
	}
	if view.Location, err = optional(s.repos.Locations.GetByID(ctx, ticket.LocationID)); err != nil {
		return nil, err
	}

	active, err := optional(s.repos.Assignments.ActiveForTicket(ctx, ticket.ID))
	if err != nil {
		return nil, err
	}
	if active != nil {
		if view.AssignedAgent, err = optional(s.repos.Users.GetByID(ctx, active.AgentID)); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// optional turns ErrNotFound into a nil value.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
