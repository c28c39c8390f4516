package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

func TestDeleteCustomerRemovesOwnedData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(agentAID, "alice", f.category.ID)
	view := f.createTicket(t, "Monitor", f.category.ID)
	_, err := f.comments.AddComment(ctx, view.ID, agent.ID, "on it", false)
	require.NoError(t, err)
	require.NotEmpty(t, f.inbox(t, f.customer.ID))

	require.NoError(t, f.users.DeleteUser(ctx, f.customer.ID, f.admin.ID))

	_, err = f.repos.Users.GetByID(ctx, f.customer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.repos.Tickets.GetByID(ctx, view.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	records, err := f.repos.Assignments.ListByTicket(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
	comments, err := f.repos.Comments.ListByTicket(ctx, view.ID, true)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, f.inbox(t, f.customer.ID))

	adminInbox := f.inbox(t, f.admin.ID)
	require.NotEmpty(t, adminInbox)
	assert.Equal(t, "System: User Deleted", adminInbox[0].Title)
	assert.Equal(t, "User ID "+f.customer.ID+" has been deleted from the system.", adminInbox[0].Message)
}

func TestDeleteAgentFreesTheirTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(agentAID, "alice", f.category.ID)
	view := f.createTicket(t, "Monitor", f.category.ID)
	require.Equal(t, agent.ID, view.AssignedAgent.ID)

	require.NoError(t, f.users.DeleteUser(ctx, agent.ID, f.admin.ID))

	page, err := f.tickets.SearchTickets(ctx, repository.TicketFilter{UnassignedOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, view.ID, page.Items[0].ID)
}

func TestDeleteUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.users.DeleteUser(context.Background(), "ffffffff-ffff-ffff-ffff-ffffffffffff", f.admin.ID)

	assert.True(t, apperrors.IsNotFound(err))
}
