package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/domain"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

func TestDashboardsFollowTicketsAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dashboards := NewDashboardService(DashboardDependencies{Repos: f.repos})
	alice := f.addAgent(agentAID, "alice", f.category.ID)
	bob := f.addAgent(agentBID, "bob", f.emptyCategory.ID)

	first := f.createTicket(t, "VPN drops", f.category.ID)
	second := f.createTicket(t, "Wifi slow", f.category.ID)
	f.createTicket(t, "Chair broken", f.emptyCategory.ID)

	_, err := f.tickets.UpdateStatus(ctx, first.ID, domain.TicketStatusInProgress, alice.ID)
	require.NoError(t, err)
	_, err = f.tickets.AssignToAgent(ctx, second.ID, bob.ID)
	require.NoError(t, err)

	admin, err := dashboards.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, admin.Stats.Total)
	assert.Equal(t, 2, admin.Stats.Open)
	assert.Equal(t, 1, admin.Stats.InProgress)
	assert.Equal(t, 2, admin.ActiveAgents)

	agent, err := dashboards.Agent(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, agent.Assigned)
	assert.Equal(t, 1, agent.Stats.InProgress)
	assert.Zero(t, agent.Stats.Open)

	agent, err = dashboards.Agent(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, agent.Assigned)
	assert.Equal(t, 2, agent.Stats.Open)

	customer, err := dashboards.Customer(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, customer.Stats.Total)
	require.Len(t, customer.Recent, 3)
	assert.Equal(t, "Chair broken", customer.Recent[0].Title)

	count, err := dashboards.CountByStatus(ctx, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = dashboards.CountByStatus(ctx, "LOST")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCustomerDashboardKeepsFiveNewest(t *testing.T) {
	f := newFixture(t)
	dashboards := NewDashboardService(DashboardDependencies{Repos: f.repos})
	for i := 0; i < 7; i++ {
		f.createTicket(t, "ticket", f.emptyCategory.ID)
	}
	last := f.createTicket(t, "newest", f.emptyCategory.ID)

	summary, err := dashboards.Customer(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Stats.Total)
	require.Len(t, summary.Recent, 5)
	assert.Equal(t, last.ID, summary.Recent[0].ID)
}
