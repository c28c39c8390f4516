package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/notify"
	"github.com/deskflow/support-desk/internal/repository"
	"github.com/deskflow/support-desk/internal/repository/memory"
)

const (
	agentAID = "a0000000-0000-0000-0000-000000000001"
	agentBID = "b0000000-0000-0000-0000-000000000002"
	agentCID = "c0000000-0000-0000-0000-000000000003"
)

// stepClock advances one second per reading so successive writes get
// distinct timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store         *memory.Store
	repos         repository.Repositories
	bus           events.Dispatcher
	tickets       *TicketService
	assignments   *AssignmentService
	comments      *CommentService
	users         *UserService
	notifications *NotificationService

	admin         domain.User
	customer      domain.User
	category      domain.Category
	emptyCategory domain.Category
	location      domain.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	repos := store.Repositories()
	uow := store.UnitOfWork()
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	bus := events.NewInMemoryDispatcher(nil)

	f := &fixture{store: store, repos: repos, bus: bus}
	f.assignments = NewAssignmentService(AssignmentDependencies{UnitOfWork: uow, Repos: repos, Clock: clock.Now})
	f.tickets = NewTicketService(TicketDependencies{
		UnitOfWork:  uow,
		Repos:       repos,
		Assignments: f.assignments,
		Dispatcher:  bus,
		Clock:       clock.Now,
	})
	f.comments = NewCommentService(CommentDependencies{UnitOfWork: uow, Repos: repos, Dispatcher: bus, Clock: clock.Now})
	f.users = NewUserService(UserDependencies{UnitOfWork: uow, Repos: repos, Dispatcher: bus, Clock: clock.Now})
	f.notifications = NewNotificationService(NotificationDependencies{
		Dispatcher:  bus,
		Notifier:    notify.NewDispatcher(notify.DispatcherDependencies{Notifications: repos.Notifications, Now: clock.Now}),
		Repos:       repos,
		Assignments: f.assignments,
	})
	f.notifications.RegisterHandlers()

	f.category = store.AddCategory(domain.Category{Name: "Network"})
	f.emptyCategory = store.AddCategory(domain.Category{Name: "Facilities"})
	f.location = store.AddLocation(domain.Location{Name: "Building 1", Type: "BUILDING"})
	f.admin = store.AddUser(domain.User{Name: "Root", Email: "root@example.com", Role: domain.UserRoleAdmin, Enabled: true})
	f.customer = store.AddUser(domain.User{Name: "Carol", Email: "carol@example.com", Role: domain.UserRoleCustomer, Enabled: true})
	return f
}

func (f *fixture) addAgent(id, name string, categoryIDs ...string) domain.User {
	return f.store.AddUser(domain.User{
		ID:          id,
		Name:        name,
		Email:       name + "@example.com",
		Role:        domain.UserRoleAgent,
		Enabled:     true,
		CategoryIDs: categoryIDs,
	})
}

func (f *fixture) createTicket(t *testing.T, title, categoryID string) *domain.TicketView {
	t.Helper()
	view, err := f.tickets.CreateTicket(context.Background(), f.customer.ID, TicketCreateInput{
		Title:       title,
		Description: title + " details",
		CategoryID:  categoryID,
		LocationID:  f.location.ID,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) inbox(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	items, err := f.repos.Notifications.ListByRecipient(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	return items
}

func titles(items []domain.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.Title)
	}
	return out
}
