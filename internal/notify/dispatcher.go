// Package notify delivers notifications to users: a persisted inbox entry
// plus best-effort email and SMS.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/observability"
	"github.com/deskflow/support-desk/internal/repository"
)

const (
	channelInbox = "inbox"
	channelEmail = "email"
	channelSMS   = "sms"
)

// Message is what one recipient receives. Text is stored in the inbox; Email
// and SMS are sent only when non-empty.
type Message struct {
	Title string
	Text  string
	Email string
	SMS   string
}

// DispatcherDependencies groups the collaborators of Dispatcher.
type DispatcherDependencies struct {
	Notifications repository.NotificationRepository
	Email         EmailSender
	SMS           SMSSender
	Cache         UnreadCache
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	DefaultRegion string
	Now           func() time.Time
}

// Dispatcher is the notification sink. Deliver never fails the caller.
type Dispatcher struct {
	notifications repository.NotificationRepository
	email         EmailSender
	sms           SMSSender
	cache         UnreadCache
	metrics       *observability.Metrics
	logger        *zap.Logger
	region        string
	now           func() time.Time
}

// NewDispatcher builds a dispatcher. Nil senders disable their channel.
func NewDispatcher(deps DispatcherDependencies) *Dispatcher {
	d := &Dispatcher{
		notifications: deps.Notifications,
		email:         deps.Email,
		sms:           deps.SMS,
		cache:         deps.Cache,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		region:        deps.DefaultRegion,
		now:           deps.Now,
	}
	if d.cache == nil {
		d.cache = NoopUnreadCache{}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// Deliver persists the notification, then tries email and SMS. Every failure
// is logged and counted.
func (d *Dispatcher) Deliver(ctx context.Context, recipient domain.User, msg Message) {
	var errs error

	n := &domain.Notification{
		RecipientID: recipient.ID,
		Title:       msg.Title,
		Message:     msg.Text,
		CreatedAt:   d.now(),
	}
	err := d.notifications.Create(ctx, n)
	d.metrics.NotificationDelivered(channelInbox, err)
	errs = multierr.Append(errs, err)
	if err == nil {
		if cacheErr := d.cache.Invalidate(ctx, recipient.ID); cacheErr != nil {
			d.logger.Warn("unread cache invalidation failed", zap.String("user_id", recipient.ID), zap.Error(cacheErr))
		}
	}

	if d.email != nil && msg.Email != "" && strings.TrimSpace(recipient.Email) != "" {
		errs = multierr.Append(errs, d.attempt(channelEmail, d.email.Send(ctx, recipient.Email, msg.Title, msg.Email)))
	}

	if d.sms != nil && msg.SMS != "" && strings.TrimSpace(recipient.PhoneNumber) != "" {
		mobile, err := NormalizePhone(recipient.PhoneNumber, d.region)
		if err == nil {
			err = d.sms.Send(ctx, mobile, msg.Title, msg.SMS)
		}
		errs = multierr.Append(errs, d.attempt(channelSMS, err))
	}

	if errs != nil {
		d.logger.Warn("notification delivery incomplete",
			zap.String("recipient_id", recipient.ID),
			zap.String("title", msg.Title),
			zap.Errors("errors", multierr.Errors(errs)),
		)
	}
}

// attempt records a channel outcome. Disabled channels are not attempts.
func (d *Dispatcher) attempt(channel string, err error) error {
	if errors.Is(err, ErrChannelDisabled) {
		return nil
	}
	d.metrics.NotificationDelivered(channel, err)
	return err
}
