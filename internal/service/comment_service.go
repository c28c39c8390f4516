package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// CommentService manages ticket threads.
type CommentService struct {
	uow        repository.UnitOfWork
	repos      repository.Repositories
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// CommentDependencies bundles collaborators.
type CommentDependencies struct {
	UnitOfWork repository.UnitOfWork
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewCommentService creates the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		uow:        deps.UnitOfWork,
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        defaultClock(deps.Clock),
	}
}

// AddComment appends a comment to the ticket thread.
func (s *CommentService) AddComment(ctx context.Context, ticketID, authorID, content string, internal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}

	var (
		ticket   *domain.Ticket
		author   *domain.User
		comment  *domain.Comment
		assignee *string
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		author, err = repos.Users.GetByID(ctx, authorID)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": authorID})
		}
		comment = &domain.Comment{
			TicketID:  ticket.ID,
			AuthorID:  author.ID,
			Content:   content,
			Internal:  internal,
			CreatedAt: s.now(),
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		active, err := optional(repos.Assignments.ActiveForTicket(ctx, ticket.ID))
		if err != nil {
			return err
		}
		if active != nil {
			assignee = strPtr(active.AgentID)
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: author.ID, Role: author.Role},
		Payload: events.CommentAddedPayload{
			Ticket:     *ticket,
			Comment:    *comment,
			AssigneeID: assignee,
		},
	})
	return comment, nil
}

// ListComments returns the thread oldest first.
func (s *CommentService) ListComments(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	if _, err := s.repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	comments, err := s.repos.Comments.ListByTicket(ctx, ticketID, includeInternal)
	if err != nil {
		return nil, mapError(err)
	}
	return comments, nil
}
