package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

func TestAddCommentNotifiesEveryoneButTheAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(agentAID, "alice", f.category.ID)
	view := f.createTicket(t, "Laptop", f.category.ID)
	agentInbox := len(f.inbox(t, agent.ID))

	comment, err := f.comments.AddComment(ctx, view.ID, f.customer.ID, "  any news?  ", false)
	require.NoError(t, err)
	assert.Equal(t, "any news?", comment.Content)

	assert.Len(t, f.inbox(t, agent.ID), agentInbox+1)
	assert.Equal(t, "New Comment on Ticket: Laptop", f.inbox(t, agent.ID)[0].Title)
	assert.NotContains(t, titles(f.inbox(t, f.customer.ID)), "New Comment on Ticket: Laptop")

	_, err = f.comments.AddComment(ctx, view.ID, agent.ID, "replacing the battery", false)
	require.NoError(t, err)
	assert.Contains(t, titles(f.inbox(t, f.customer.ID)), "New Comment on Ticket: Laptop")
}

func TestInternalCommentsStayOffTheCustomerSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Laptop", f.emptyCategory.ID)

	_, err := f.comments.AddComment(ctx, view.ID, f.admin.ID, "customer is VIP", true)
	require.NoError(t, err)
	_, err = f.comments.AddComment(ctx, view.ID, f.customer.ID, "hello", false)
	require.NoError(t, err)

	assert.NotContains(t, titles(f.inbox(t, f.customer.ID)), "New Comment on Ticket: Laptop")

	public, err := f.comments.ListComments(ctx, view.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "hello", public[0].Content)

	all, err := f.comments.ListComments(ctx, view.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddCommentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Laptop", f.emptyCategory.ID)

	_, err := f.comments.AddComment(ctx, view.ID, f.customer.ID, "   ", false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.comments.AddComment(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", f.customer.ID, "hi", false)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.comments.ListComments(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", true)
	assert.True(t, apperrors.IsNotFound(err))
}
