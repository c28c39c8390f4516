package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c != nil {
		return c
	}
	return func() time.Time { return time.Now().UTC() }
}

// mapError is apperrors.MapError plus the repository conflicts.
func mapError(err error) error {
	if errors.Is(err, repository.ErrActiveAssignment) {
		return apperrors.NewConflict("ticket already has an active assignment", nil)
	}
	return apperrors.MapError(err)
}

// notFoundOr converts a repository miss into a NOT_FOUND error for resource
// and passes every other error through MapError.
func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return mapError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	// Delivery runs after commit and keeps its own channel timeouts, so the
	// request deadline must not cut it short.
	_ = dispatcher.Publish(context.WithoutCancel(ctx), event)
}

func strPtr(v string) *string {
	return &v
}
