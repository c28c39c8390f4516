// Package memory keeps every repository in process. It backs the tests and
// the development mode that runs without POSTGRES_DSN.
package memory

import (
	"context"
	"sync"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
)

type state struct {
	tickets       map[string]domain.Ticket
	assignments   map[string]domain.Assignment
	users         map[string]domain.User
	categories    map[string]domain.Category
	locations     map[string]domain.Location
	comments      map[string]domain.Comment
	notifications map[string]domain.Notification
	// seq orders rows inserted within the same instant.
	seq      int64
	sequence map[string]int64
}

func newState() state {
	return state{
		tickets:       map[string]domain.Ticket{},
		assignments:   map[string]domain.Assignment{},
		users:         map[string]domain.User{},
		categories:    map[string]domain.Category{},
		locations:     map[string]domain.Location{},
		comments:      map[string]domain.Comment{},
		notifications: map[string]domain.Notification{},
		sequence:      map[string]int64{},
	}
}

// txLog collects undo steps for the writes of one unit of work. A nil log
// means the write happens outside any unit and is never rolled back.
type txLog struct {
	undo []func()
}

// remember saves the current value of m[id] so rollback can restore it.
// Callers hold the write lock.
func remember[T any](tx *txLog, m map[string]T, id string) {
	if tx == nil {
		return
	}
	prev, existed := m[id]
	tx.undo = append(tx.undo, func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
}

// rollback replays the undo steps newest first. Writes made by other
// callers while the unit ran are left alone.
func (s *Store) rollback(tx *txLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

// Store is the shared in-memory database.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repositories returns repositories operating directly on the store.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(nil)
}

func (s *Store) repositories(tx *txLog) repository.Repositories {
	return repository.Repositories{
		Tickets:       &ticketRepository{s: s, tx: tx},
		Assignments:   &assignmentRepository{s: s, tx: tx},
		Users:         &userRepository{s: s, tx: tx},
		Categories:    &categoryRepository{s: s},
		Locations:     &locationRepository{s: s},
		Comments:      &commentRepository{s: s, tx: tx},
		Notifications: &notificationRepository{s: s, tx: tx},
	}
}

// UnitOfWork returns a unit of work over the store. Units run one at a time;
// a failing unit undoes its own writes and nothing else.
func (s *Store) UnitOfWork() repository.UnitOfWork {
	return &unitOfWork{s: s}
}

type unitOfWork struct {
	s *Store
}

func (u *unitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	u.s.txMu.Lock()
	defer u.s.txMu.Unlock()

	tx := &txLog{}
	if err := fn(ctx, u.s.repositories(tx)); err != nil {
		u.s.rollback(tx)
		return err
	}
	return nil
}

func (s *Store) nextSeq(tx *txLog, id string) {
	remember(tx, s.data.sequence, id)
	s.data.seq++
	s.data.sequence[id] = s.data.seq
}

// AddUser seeds a user. An empty ID is generated.
func (s *Store) AddUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	u.CategoryIDs = append([]string(nil), u.CategoryIDs...)
	s.data.users[u.ID] = u
	return u
}

// AddCategory seeds a category. An empty ID is generated.
func (s *Store) AddCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	s.data.categories[c.ID] = c
	return c
}

// AddLocation seeds a location. An empty ID is generated.
func (s *Store) AddLocation(l domain.Location) domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	s.data.locations[l.ID] = l
	return l
}
