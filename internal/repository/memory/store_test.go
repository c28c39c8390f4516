package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
)

func newTicket(title string, created time.Time) *domain.Ticket {
	return &domain.Ticket{
		Title:     title,
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityMedium,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.UnitOfWork().Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		require.NoError(t, repos.Tickets.Create(ctx, newTicket("lost", time.Now())))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, total, err := store.Repositories().Tickets.Search(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUnitOfWorkRollbackKeepsWritesMadeOutsideIt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repositories()
	boom := errors.New("boom")

	kept := newTicket("kept", time.Now())
	require.NoError(t, repos.Tickets.Create(ctx, kept))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.UnitOfWork().Do(ctx, func(ctx context.Context, tx repository.Repositories) error {
			if err := tx.Tickets.Create(ctx, newTicket("lost", time.Now())); err != nil {
				return err
			}
			updated := *kept
			updated.Status = domain.TicketStatusClosed
			if err := tx.Tickets.Update(ctx, &updated); err != nil {
				return err
			}
			close(started)
			<-release
			return boom
		})
	}()

	<-started
	require.NoError(t, repos.Notifications.Create(ctx, &domain.Notification{RecipientID: "admin", Title: "System: Ticket Assigned"}))
	close(release)
	assert.ErrorIs(t, <-done, boom)

	unread, err := repos.Notifications.CountUnread(ctx, "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	got, err := repos.Tickets.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)

	_, total, err := repos.Tickets.Search(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRecordRefusesSecondActiveAssignment(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repositories()
	ticket := newTicket("t", time.Now())
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	first := &domain.Assignment{TicketID: ticket.ID, AgentID: "a", Status: domain.AssignmentStatusAssigned}
	require.NoError(t, repos.Assignments.Record(ctx, first))
	err := repos.Assignments.Record(ctx, &domain.Assignment{TicketID: ticket.ID, AgentID: "b", Status: domain.AssignmentStatusActive})
	assert.ErrorIs(t, err, repository.ErrActiveAssignment)

	n, err := repos.Assignments.Deactivate(ctx, ticket.ID, domain.ActiveAssignmentStatuses)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, repos.Assignments.Record(ctx, &domain.Assignment{TicketID: ticket.ID, AgentID: "b", Status: domain.AssignmentStatusAssigned}))

	active, err := repos.Assignments.ActiveForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", active.AgentID)
}

func TestSearchOrdersNewestFirstAndMatchesText(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repositories()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := newTicket("Email bounce", base)
	newer := newTicket("Printer", base.Add(time.Hour))
	newer.Description = "Toner EMPTY"
	require.NoError(t, repos.Tickets.Create(ctx, older))
	require.NoError(t, repos.Tickets.Create(ctx, newer))

	all, total, err := repos.Tickets.Search(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{newer.ID, older.ID}, []string{all[0].ID, all[1].ID})

	text := "empty"
	hits, _, err := repos.Tickets.Search(ctx, repository.TicketFilter{Text: &text})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, newer.ID, hits[0].ID)

	byID := older.ID[:8]
	hits, _, err = repos.Tickets.Search(ctx, repository.TicketFilter{Text: &byID})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, older.ID, hits[0].ID)

	beyond, total, err := repos.Tickets.Search(ctx, repository.TicketFilter{Page: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, 2, total)
}

func TestSeedDemo(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	demo := store.SeedDemo("hash", time.Now())

	agents, err := store.Repositories().Users.ListAgentsByCategory(ctx, demo.Category.ID)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, demo.Agent.ID, agents[0].ID)

	admin, err := store.Repositories().Users.GetByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, admin.Role)
}
