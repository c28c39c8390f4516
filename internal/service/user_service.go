package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/notify"
	"github.com/deskflow/support-desk/internal/repository"
)

// UserService handles user administration that touches ticket data.
type UserService struct {
	uow        repository.UnitOfWork
	repos      repository.Repositories
	dispatcher events.Dispatcher
	cache      notify.UnreadCache
	logger     *zap.Logger
	now        Clock
}

// UserDependencies bundles collaborators.
type UserDependencies struct {
	UnitOfWork repository.UnitOfWork
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Cache      notify.UnreadCache
	Logger     *zap.Logger
	Clock      Clock
}

// NewUserService creates the service.
func NewUserService(deps UserDependencies) *UserService {
	s := &UserService{
		uow:        deps.UnitOfWork,
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
		now:        defaultClock(deps.Clock),
	}
	if s.cache == nil {
		s.cache = notify.NoopUnreadCache{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", map[string]any{"user_id": userID})
	}
	return user, nil
}

// DeleteUser removes the user and everything that references it. Rows are
// removed children first so foreign keys hold at every step.
func (s *UserService) DeleteUser(ctx context.Context, userID, actorID string) error {
	var user *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": userID})
		}

		steps := []func(context.Context, string) error{
			repos.Assignments.DeleteByAgent,
			repos.Assignments.DeleteByTicketCustomer,
			repos.Comments.DeleteByTicketCustomer,
			repos.Comments.DeleteByAuthor,
			repos.Notifications.DeleteByRecipient,
			repos.Tickets.DeleteByCustomer,
			repos.Users.Delete,
		}
		for _, step := range steps {
			if err := step(ctx, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}

	if err := s.cache.Invalidate(ctx, user.ID); err != nil {
		s.logger.Warn("unread cache invalidation failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("user deleted", zap.String("user_id", user.ID), zap.String("actor_id", actorID))

	actor := events.Actor{UserID: actorID}
	if a, err := s.repos.Users.GetByID(ctx, actorID); err == nil {
		actor.Role = a.Role
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:  events.EventUserDeleted,
		Actor: actor,
		Payload: events.UserDeletedPayload{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		},
	})
	return nil
}
