package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

func TestCreateTicketAssignsLeastLoadedAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addAgent(agentAID, "alice", f.category.ID)
	b := f.addAgent(agentBID, "bob", f.category.ID)
	c := f.addAgent(agentCID, "chris", f.category.ID)

	// Loads: A=2, B=0, C=1.
	for _, agentID := range []string{a.ID, a.ID, c.ID} {
		seed := f.createTicket(t, "seed", f.emptyCategory.ID)
		_, err := f.tickets.AssignToAgent(ctx, seed.ID, agentID)
		require.NoError(t, err)
	}

	view := f.createTicket(t, "VPN down", f.category.ID)

	require.NotNil(t, view.AssignedAgent)
	assert.Equal(t, b.ID, view.AssignedAgent.ID)
	assert.Equal(t, domain.TicketStatusOpen, view.Status)
	assert.Equal(t, domain.TicketPriorityMedium, view.Priority)

	assert.Contains(t, titles(f.inbox(t, b.ID)), "New Ticket Assigned: VPN down")
	assert.Contains(t, titles(f.inbox(t, f.admin.ID)), "System: Ticket Assigned")

	history, err := f.assignments.History(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].NotificationSent)
	assert.Equal(t, f.category.ID, history[0].CategoryID)
}

func TestCreateTicketTieBreaksOnLowestAgentID(t *testing.T) {
	f := newFixture(t)
	f.addAgent(agentCID, "chris", f.category.ID)
	f.addAgent(agentBID, "bob", f.category.ID)

	view := f.createTicket(t, "Printer jam", f.category.ID)

	require.NotNil(t, view.AssignedAgent)
	assert.Equal(t, agentBID, view.AssignedAgent.ID)
}

func TestCreateTicketSkipsDisabledAndForeignAgents(t *testing.T) {
	f := newFixture(t)
	f.store.AddUser(domain.User{ID: agentAID, Name: "off", Role: domain.UserRoleAgent, CategoryIDs: []string{f.category.ID}})
	f.addAgent(agentBID, "elsewhere", f.emptyCategory.ID)

	view := f.createTicket(t, "Broken chair", f.category.ID)

	assert.Nil(t, view.AssignedAgent)
}

func TestCreateTicketWithoutAgentsStaysUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := f.createTicket(t, "Leaking tap", f.emptyCategory.ID)

	assert.Equal(t, domain.TicketStatusOpen, view.Status)
	assert.Nil(t, view.AssignedAgent)
	_, ok, err := f.tickets.ActiveAssignee(ctx, view.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	inbox := f.inbox(t, f.admin.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, "System: New Ticket Created", inbox[0].Title)
	assert.Contains(t, inbox[0].Message, "(Unassigned) by Carol")
}

func TestCreateTicketValidatesReferencesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := "ffffffff-ffff-ffff-ffff-ffffffffffff"

	cases := map[string]struct {
		customerID string
		input      TicketCreateInput
	}{
		"customer": {missing, TicketCreateInput{Title: "x", CategoryID: f.category.ID, LocationID: f.location.ID}},
		"category": {f.customer.ID, TicketCreateInput{Title: "x", CategoryID: missing, LocationID: f.location.ID}},
		"location": {f.customer.ID, TicketCreateInput{Title: "x", CategoryID: f.category.ID, LocationID: missing}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(ctx, tc.customerID, tc.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})
	}

	page, err := f.tickets.SearchTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.CreateTicket(context.Background(), f.customer.ID, TicketCreateInput{
		Title:      "x",
		CategoryID: f.category.ID,
		LocationID: f.location.ID,
		Priority:   "CRITICAL",
	})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCreateThenGetReturnsSameTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tickets.CreateTicket(ctx, f.customer.ID, TicketCreateInput{
		Title:       "  Wifi slow  ",
		Description: "Third floor",
		CategoryID:  f.category.ID,
		LocationID:  f.location.ID,
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	got, err := f.tickets.GetTicket(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Ticket, got.Ticket)
	assert.Equal(t, "Wifi slow", got.Title)
	assert.Equal(t, domain.TicketPriorityHigh, got.Priority)
	assert.Equal(t, f.customer.ID, got.Customer.ID)
	assert.Equal(t, f.category.ID, got.Category.ID)
	assert.Equal(t, f.location.ID, got.Location.ID)
}

func TestAssignToAgentReplacesActiveRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addAgent(agentAID, "xavier")
	y := f.addAgent(agentBID, "yara")
	view := f.createTicket(t, "Door lock", f.emptyCategory.ID)

	_, err := f.tickets.AssignToAgent(ctx, view.ID, x.ID)
	require.NoError(t, err)
	updated, err := f.tickets.AssignToAgent(ctx, view.ID, y.ID)
	require.NoError(t, err)

	assert.Equal(t, y.ID, updated.AssignedAgent.ID)
	assert.True(t, updated.UpdatedAt.After(view.UpdatedAt))
	agentID, ok, err := f.tickets.ActiveAssignee(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, y.ID, agentID)

	history, err := f.assignments.History(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, y.ID, history[0].AgentID)
	assert.Equal(t, domain.AssignmentStatusAssigned, history[0].Status)
	assert.Equal(t, x.ID, history[1].AgentID)
	assert.Equal(t, domain.AssignmentStatusCompleted, history[1].Status)

	assert.Equal(t, []string{"New Ticket Assigned: Door lock"}, titles(f.inbox(t, y.ID)))
	assert.Contains(t, titles(f.inbox(t, f.admin.ID)), "System: Ticket Reassigned")
}

func TestAssignToAgentRequiresExistingAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Door lock", f.emptyCategory.ID)

	_, err := f.tickets.AssignToAgent(ctx, view.ID, "ffffffff-ffff-ffff-ffff-ffffffffffff")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.tickets.AssignToAgent(ctx, view.ID, f.customer.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.tickets.AssignToAgent(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", agentAID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConcurrentAssignToAgentKeepsOneActiveRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addAgent(agentAID, "xavier")
	y := f.addAgent(agentBID, "yara")
	view := f.createTicket(t, "Race", f.emptyCategory.ID)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		agentID := x.ID
		if i%2 == 1 {
			agentID = y.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tickets.AssignToAgent(ctx, view.ID, agentID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := f.assignments.History(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, history, 20)
	active := 0
	for _, a := range history {
		if a.Status.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)

	agentID, ok, err := f.tickets.ActiveAssignee(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, history[0].AgentID, agentID)
}

func TestUpdateStatusRedundantCloseStillTouchesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Projector", f.emptyCategory.ID)

	first, err := f.tickets.UpdateStatus(ctx, view.ID, domain.TicketStatusClosed, f.admin.ID)
	require.NoError(t, err)
	second, err := f.tickets.UpdateStatus(ctx, view.ID, domain.TicketStatusClosed, f.admin.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusClosed, second.Status)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	var updates int
	for _, n := range f.inbox(t, f.customer.ID) {
		if n.Title == "Ticket Status Updated: Projector" {
			updates++
			assert.Contains(t, n.Message, "status updated to CLOSED")
		}
	}
	assert.Equal(t, 2, updates)
	assert.Contains(t, titles(f.inbox(t, f.admin.ID)), "System: Ticket Status Update")
}

func TestUpdateStatusAllowsReopeningClosedTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Heating", f.emptyCategory.ID)

	_, err := f.tickets.UpdateStatus(ctx, view.ID, domain.TicketStatusClosed, f.admin.ID)
	require.NoError(t, err)
	reopened, err := f.tickets.UpdateStatus(ctx, view.ID, domain.TicketStatusOpen, f.customer.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, reopened.Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createTicket(t, "Heating", f.emptyCategory.ID)

	_, err := f.tickets.UpdateStatus(ctx, view.ID, "ARCHIVED", f.admin.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.UpdateStatus(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", domain.TicketStatusClosed, f.admin.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.tickets.UpdateStatus(ctx, view.ID, domain.TicketStatusClosed, "ffffffff-ffff-ffff-ffff-ffffffffffff")
	assert.True(t, apperrors.IsNotFound(err))

	got, err := f.tickets.GetTicket(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}

func TestLoadIgnoresTicketsThatAreNotOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addAgent(agentAID, "alice", f.category.ID)
	f.addAgent(agentBID, "bob", f.category.ID)

	busy := f.createTicket(t, "first", f.category.ID)
	require.Equal(t, a.ID, busy.AssignedAgent.ID)
	_, err := f.tickets.UpdateStatus(ctx, busy.ID, domain.TicketStatusResolved, a.ID)
	require.NoError(t, err)

	next := f.createTicket(t, "second", f.category.ID)

	assert.Equal(t, a.ID, next.AssignedAgent.ID)
}

func TestSearchUnassignedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAgent(agentAID, "alice", f.category.ID)
	assigned := f.createTicket(t, "assigned", f.category.ID)
	unassigned := f.createTicket(t, "waiting", f.emptyCategory.ID)
	require.NotNil(t, assigned.AssignedAgent)

	page, err := f.tickets.SearchTickets(ctx, repository.TicketFilter{UnassignedOnly: true})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, unassigned.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)
}

func TestSearchCombinesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(agentAID, "alice", f.category.ID)
	vpn := f.createTicket(t, "VPN drops", f.category.ID)
	f.createTicket(t, "Mouse broken", f.emptyCategory.ID)

	empty := ""
	page, err := f.tickets.SearchTickets(ctx, repository.TicketFilter{Text: &empty})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	text := "vpn"
	page, err = f.tickets.SearchTickets(ctx, repository.TicketFilter{Text: &text, AssigneeID: &agent.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, vpn.ID, page.Items[0].ID)
	assert.Equal(t, agent.ID, page.Items[0].AssignedAgent.ID)

	status := domain.TicketStatusClosed
	page, err = f.tickets.SearchTickets(ctx, repository.TicketFilter{Status: &status})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)

	page, err = f.tickets.SearchTickets(ctx, repository.TicketFilter{PageSize: 1, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 1, page.PageSize)
}
