package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
)

func newID() string {
	return uuid.NewString()
}

type ticketRepository struct {
	s  *Store
	tx *txLog
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = newID()
	remember(r.tx, r.s.data.tickets, ticket.ID)
	r.s.data.tickets[ticket.ID] = *ticket
	r.s.nextSeq(r.tx, ticket.ID)
	return nil
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *ticket
	updated.CustomerID = existing.CustomerID
	updated.CreatedAt = existing.CreatedAt
	remember(r.tx, r.s.data.tickets, ticket.ID)
	r.s.data.tickets[ticket.ID] = updated
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// GetForUpdate needs no extra locking: units of work already run one at a time.
func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) Search(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Ticket
	for _, t := range r.s.data.tickets {
		if r.matches(t, filter) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := filter.Offset()
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.Limit()
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// matches must be called with the read lock held.
func (r *ticketRepository) matches(t domain.Ticket, f repository.TicketFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Text != nil {
		q := strings.ToLower(*f.Text)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(t.ID, q) {
			return false
		}
	}
	if f.LocationID != nil && t.LocationID != *f.LocationID {
		return false
	}
	if f.CustomerID != nil && t.CustomerID != *f.CustomerID {
		return false
	}
	active, hasActive := r.s.activeFor(t.ID)
	if f.AssigneeID != nil && (!hasActive || active.AgentID != *f.AssigneeID) {
		return false
	}
	if f.UnassignedOnly && hasActive {
		return false
	}
	return true
}

func (r *ticketRepository) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[domain.TicketStatus]int, 4)
	for _, t := range r.s.data.tickets {
		if r.matches(t, filter) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (r *ticketRepository) DeleteByCustomer(_ context.Context, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.data.tickets {
		if t.CustomerID == customerID {
			remember(r.tx, r.s.data.tickets, id)
			delete(r.s.data.tickets, id)
		}
	}
	return nil
}

// activeFor returns the newest active record of ticketID. Callers hold the lock.
func (s *Store) activeFor(ticketID string) (domain.Assignment, bool) {
	var (
		found domain.Assignment
		seq   int64 = -1
	)
	for _, a := range s.data.assignments {
		if a.TicketID != ticketID || !a.Status.IsActive() {
			continue
		}
		if n := s.data.sequence[a.ID]; n > seq {
			found, seq = a, n
		}
	}
	return found, seq >= 0
}

type assignmentRepository struct {
	s  *Store
	tx *txLog
}

func (r *assignmentRepository) Deactivate(_ context.Context, ticketID string, statuses []domain.AssignmentStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, a := range r.s.data.assignments {
		if a.TicketID != ticketID || !containsStatus(statuses, a.Status) {
			continue
		}
		a.Status = domain.AssignmentStatusCompleted
		remember(r.tx, r.s.data.assignments, id)
		r.s.data.assignments[id] = a
		n++
	}
	return n, nil
}

// Record enforces the at-most-one-active rule the way the partial unique
// index does in Postgres.
func (r *assignmentRepository) Record(_ context.Context, a *domain.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.Status.IsActive() {
		if _, ok := r.s.activeFor(a.TicketID); ok {
			return repository.ErrActiveAssignment
		}
	}
	a.ID = newID()
	remember(r.tx, r.s.data.assignments, a.ID)
	r.s.data.assignments[a.ID] = *a
	r.s.nextSeq(r.tx, a.ID)
	return nil
}

func (r *assignmentRepository) ActiveForTicket(_ context.Context, ticketID string) (*domain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.activeFor(ticketID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *assignmentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Assignment
	for _, a := range r.s.data.assignments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return r.s.data.sequence[result[i].ID] > r.s.data.sequence[result[j].ID]
	})
	return result, nil
}

func (r *assignmentRepository) CountOpenActive(_ context.Context, agentIDs []string) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(agentIDs))
	for _, id := range agentIDs {
		wanted[id] = struct{}{}
	}
	loads := make(map[string]int, len(agentIDs))
	for _, a := range r.s.data.assignments {
		if !a.Status.IsActive() {
			continue
		}
		if _, ok := wanted[a.AgentID]; !ok {
			continue
		}
		if t, ok := r.s.data.tickets[a.TicketID]; ok && t.Status == domain.TicketStatusOpen {
			loads[a.AgentID]++
		}
	}
	return loads, nil
}

func (r *assignmentRepository) CountActiveAgents(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agents := map[string]struct{}{}
	for _, a := range r.s.data.assignments {
		if a.Status.IsActive() {
			agents[a.AgentID] = struct{}{}
		}
	}
	return len(agents), nil
}

func (r *assignmentRepository) MarkNotified(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.NotificationSent = true
	remember(r.tx, r.s.data.assignments, id)
	r.s.data.assignments[id] = a
	return nil
}

func (r *assignmentRepository) DeleteByAgent(_ context.Context, agentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.data.assignments {
		if a.AgentID == agentID {
			remember(r.tx, r.s.data.assignments, id)
			delete(r.s.data.assignments, id)
		}
	}
	return nil
}

func (r *assignmentRepository) DeleteByTicketCustomer(_ context.Context, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.data.assignments {
		if t, ok := r.s.data.tickets[a.TicketID]; ok && t.CustomerID == customerID {
			remember(r.tx, r.s.data.assignments, id)
			delete(r.s.data.assignments, id)
		}
	}
	return nil
}

func containsStatus(statuses []domain.AssignmentStatus, s domain.AssignmentStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type userRepository struct {
	s  *Store
	tx *txLog
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.data.users[id]
	return ok, nil
}

func (r *userRepository) ListAgentsByCategory(_ context.Context, categoryID string) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool {
		return u.Role == domain.UserRoleAgent && u.Enabled && u.InCategory(categoryID)
	}), nil
}

func (r *userRepository) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool { return u.Role == role }), nil
}

func (r *userRepository) filter(keep func(domain.User) bool) []domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.User
	for _, u := range r.s.data.users {
		if keep(u) {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return repository.ErrNotFound
	}
	remember(r.tx, r.s.data.users, id)
	delete(r.s.data.users, id)
	return nil
}

type categoryRepository struct{ s *Store }

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type locationRepository struct{ s *Store }

func (r *locationRepository) GetByID(_ context.Context, id string) (*domain.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.data.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

type commentRepository struct {
	s  *Store
	tx *txLog
}

func (r *commentRepository) Create(_ context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = newID()
	remember(r.tx, r.s.data.comments, c.ID)
	r.s.data.comments[c.ID] = *c
	r.s.nextSeq(r.tx, c.ID)
	return nil
}

func (r *commentRepository) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Comment
	for _, c := range r.s.data.comments {
		if c.TicketID != ticketID || (c.Internal && !includeInternal) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return r.s.data.sequence[result[i].ID] < r.s.data.sequence[result[j].ID]
	})
	return result, nil
}

func (r *commentRepository) DeleteByAuthor(_ context.Context, authorID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.data.comments {
		if c.AuthorID == authorID {
			remember(r.tx, r.s.data.comments, id)
			delete(r.s.data.comments, id)
		}
	}
	return nil
}

func (r *commentRepository) DeleteByTicketCustomer(_ context.Context, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.data.comments {
		if t, ok := r.s.data.tickets[c.TicketID]; ok && t.CustomerID == customerID {
			remember(r.tx, r.s.data.comments, id)
			delete(r.s.data.comments, id)
		}
	}
	return nil
}

type notificationRepository struct {
	s  *Store
	tx *txLog
}

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = newID()
	remember(r.tx, r.s.data.notifications, n.ID)
	r.s.data.notifications[n.ID] = *n
	r.s.nextSeq(r.tx, n.ID)
	return nil
}

func (r *notificationRepository) ListByRecipient(_ context.Context, recipientID string, limit, offset int) ([]domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Notification
	for _, n := range r.s.data.notifications {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return r.s.data.sequence[result[i].ID] > r.s.data.sequence[result[j].ID]
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.data.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	n.Read = true
	remember(r.tx, r.s.data.notifications, id)
	r.s.data.notifications[id] = n
	return nil
}

func (r *notificationRepository) DeleteByRecipient(_ context.Context, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.data.notifications {
		if n.RecipientID == recipientID {
			remember(r.tx, r.s.data.notifications, id)
			delete(r.s.data.notifications, id)
		}
	}
	return nil
}
