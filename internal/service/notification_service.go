package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/notify"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 100
)

// Notifier is the delivery sink. Deliver never fails the caller.
type Notifier interface {
	Deliver(ctx context.Context, recipient domain.User, msg notify.Message)
}

// NotificationService turns lifecycle events into notifications and serves
// the caller's inbox.
type NotificationService struct {
	dispatcher  events.Dispatcher
	notifier    Notifier
	repos       repository.Repositories
	assignments *AssignmentService
	cache       notify.UnreadCache
	logger      *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	Notifier    Notifier
	Repos       repository.Repositories
	Assignments *AssignmentService
	Cache       notify.UnreadCache
	Logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	n := &NotificationService{
		dispatcher:  deps.Dispatcher,
		notifier:    deps.Notifier,
		repos:       deps.Repos,
		assignments: deps.Assignments,
		cache:       deps.Cache,
		logger:      deps.Logger,
	}
	if n.cache == nil {
		n.cache = notify.NoopUnreadCache{}
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventUserDeleted, n.handleUserDeleted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	t := payload.Ticket
	if payload.AssigneeID == nil {
		return n.notifyAdmins(ctx, "System: New Ticket Created",
			fmt.Sprintf("Ticket #%s created (Unassigned) by %s", t.ID, payload.CustomerName))
	}

	agent, err := n.repos.Users.GetByID(ctx, *payload.AssigneeID)
	if err != nil {
		return err
	}
	n.notifyAgentAssigned(ctx, *agent, t, payload.AssignmentID)
	return n.notifyAdmins(ctx, "System: Ticket Assigned",
		fmt.Sprintf("Ticket #%s assigned to %s", t.ID, agent.Name))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	t := payload.Ticket
	customer, err := n.repos.Users.GetByID(ctx, t.CustomerID)
	if err == nil {
		n.notifier.Deliver(ctx, *customer, notify.Message{
			Title: "Ticket Status Updated: " + t.Title,
			Text:  fmt.Sprintf("Ticket #%s status updated to %s", t.ID, payload.NewStatus),
			Email: fmt.Sprintf("Hello %s,\n\nThe status of your ticket %q has been updated to: %s.\n\n"+
				"Please log in for more details.\n\nSupport Desk", customer.Name, t.Title, payload.NewStatus),
		})
	} else {
		n.logger.Warn("ticket customer not resolvable", zap.String("ticket_id", t.ID), zap.Error(err))
	}
	return n.notifyAdmins(ctx, "System: Ticket Status Update",
		fmt.Sprintf("Ticket #%s status updated to %s by User ID %s", t.ID, payload.NewStatus, event.Actor.UserID))
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	agent, err := n.repos.Users.GetByID(ctx, payload.AssigneeID)
	if err != nil {
		return err
	}
	n.notifyAgentAssigned(ctx, *agent, payload.Ticket, &payload.AssignmentID)
	return n.notifyAdmins(ctx, "System: Ticket Reassigned",
		fmt.Sprintf("Ticket #%s manually assigned to %s", payload.Ticket.ID, agent.Name))
}

// handleCommentAdded notifies the customer and the active agent, never the
// author. Customers are not told about internal comments.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	t, c := payload.Ticket, payload.Comment

	recipients := make([]string, 0, 2)
	if !c.Internal && t.CustomerID != c.AuthorID {
		recipients = append(recipients, t.CustomerID)
	}
	if payload.AssigneeID != nil && *payload.AssigneeID != c.AuthorID {
		recipients = append(recipients, *payload.AssigneeID)
	}

	for _, id := range recipients {
		user, err := n.repos.Users.GetByID(ctx, id)
		if err != nil {
			n.logger.Warn("comment recipient not resolvable", zap.String("user_id", id), zap.Error(err))
			continue
		}
		n.notifier.Deliver(ctx, *user, notify.Message{
			Title: "New Comment on Ticket: " + t.Title,
			Text:  "New comment on ticket #" + t.ID,
			Email: fmt.Sprintf("Hello %s,\n\nThere is a new comment on ticket %q:\n\n%s\n\n"+
				"Please log in to reply.\n\nSupport Desk", user.Name, t.Title, c.Content),
		})
	}
	return nil
}

func (n *NotificationService) handleUserDeleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserDeletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	return n.notifyAdmins(ctx, "System: User Deleted",
		fmt.Sprintf("User ID %s has been deleted from the system.", payload.UserID))
}

func (n *NotificationService) notifyAgentAssigned(ctx context.Context, agent domain.User, t domain.Ticket, assignmentID *string) {
	n.notifier.Deliver(ctx, agent, notify.Message{
		Title: "New Ticket Assigned: " + t.Title,
		Text:  fmt.Sprintf("You have been assigned to ticket #%s: %s", t.ID, t.Title),
		Email: fmt.Sprintf("Dear %s,\n\nA new ticket has been assigned to you.\n\nTitle: %s\nDescription: %s\n\n"+
			"Please log in to the system to respond.\n\nSupport Desk", agent.Name, t.Title, t.Description),
		SMS: "New ticket assigned: " + t.Title,
	})
	if assignmentID != nil && n.assignments != nil {
		n.assignments.MarkNotified(ctx, *assignmentID)
	}
}

// notifyAdmins stores an inbox entry for every admin.
func (n *NotificationService) notifyAdmins(ctx context.Context, title, text string) error {
	admins, err := n.repos.Users.ListByRole(ctx, domain.UserRoleAdmin)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		n.notifier.Deliver(ctx, admin, notify.Message{Title: title, Text: text})
	}
	return nil
}

// List returns the caller's notifications, newest first. page starts at 1.
func (n *NotificationService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultNotificationPageSize
	case pageSize > maxNotificationPageSize:
		pageSize = maxNotificationPageSize
	}
	items, err := n.repos.Notifications.ListByRecipient(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// UnreadCount reads through the unread cache.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if count, ok, err := n.cache.Get(ctx, userID); err == nil && ok {
		return count, nil
	} else if err != nil {
		n.logger.Warn("unread cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	count, err := n.repos.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if err := n.cache.Set(ctx, userID, count); err != nil {
		n.logger.Warn("unread cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := n.repos.Notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return notFoundOr(err, "notification", map[string]any{"notification_id": notificationID})
	}
	if err := n.cache.Invalidate(ctx, userID); err != nil {
		n.logger.Warn("unread cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
