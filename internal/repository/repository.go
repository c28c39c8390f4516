package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/support-desk/internal/domain"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = apperrors.ErrRecordNotFound

// ErrActiveAssignment is returned when a second active assignment would be
// recorded for a ticket.
var ErrActiveAssignment = errors.New("ticket already has an active assignment")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate loads the ticket and locks its row until the surrounding
	// unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// CountByStatus groups the tickets matching filter by status. Paging is
	// ignored and statuses without tickets are absent.
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error)
	DeleteByCustomer(ctx context.Context, customerID string) error
}

// AssignmentRepository is the assignment ledger.
type AssignmentRepository interface {
	Deactivate(ctx context.Context, ticketID string, statuses []domain.AssignmentStatus) (int64, error)
	Record(ctx context.Context, assignment *domain.Assignment) error
	ActiveForTicket(ctx context.Context, ticketID string) (*domain.Assignment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
	// CountOpenActive returns, per agent, the number of OPEN tickets on which
	// the agent holds the active assignment. Agents without load are absent.
	CountOpenActive(ctx context.Context, agentIDs []string) (map[string]int, error)
	// CountActiveAgents returns how many agents hold at least one active record.
	CountActiveAgents(ctx context.Context) (int, error)
	MarkNotified(ctx context.Context, id string) error
	DeleteByAgent(ctx context.Context, agentID string) error
	DeleteByTicketCustomer(ctx context.Context, customerID string) error
}

// UserRepository defines read access to users plus cleanup.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListAgentsByCategory returns enabled agents of the category ordered by id.
	ListAgentsByCategory(ctx context.Context, categoryID string) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository resolves categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// LocationRepository resolves locations.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Location, error)
}

// CommentRepository manages ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error)
	DeleteByAuthor(ctx context.Context, authorID string) error
	DeleteByTicketCustomer(ctx context.Context, customerID string) error
}

// NotificationRepository persists delivered notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	DeleteByRecipient(ctx context.Context, recipientID string) error
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Tickets       TicketRepository
	Assignments   AssignmentRepository
	Users         UserRepository
	Categories    CategoryRepository
	Locations     LocationRepository
	Comments      CommentRepository
	Notifications NotificationRepository
}

// UnitOfWork runs fn inside a single transaction. Returning an error from fn
// rolls every write back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// NewRepositories binds Postgres repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:       NewTicketRepository(db),
		Assignments:   NewAssignmentRepository(db),
		Users:         NewUserRepository(db),
		Categories:    NewCategoryRepository(db),
		Locations:     NewLocationRepository(db),
		Comments:      NewCommentRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

type pgUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork returns a Postgres unit of work at READ COMMITTED. Row locks
// taken through GetForUpdate serialize writers on the same ticket.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginTxFunc(ctx, u.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// notFound translates pgx's no-rows error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID rejects ids Postgres would refuse to cast to uuid.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func statusStrings(statuses []domain.AssignmentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
