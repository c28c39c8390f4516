package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deskflow/support-desk/internal/domain"
)

const (
	uniqueViolation       = "23505"
	activeAssignmentIndex = "uq_ticket_assignments_active"
)

const assignmentColumns = `id, ticket_id, agent_id, category_id, status, assigned_at, notification_sent`

type assignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository returns a Postgres-backed assignment ledger.
func NewAssignmentRepository(db DBTX) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Deactivate flips every record of ticketID in one of statuses to COMPLETED.
func (r *assignmentRepository) Deactivate(ctx context.Context, ticketID string, statuses []domain.AssignmentStatus) (int64, error) {
	if !validID(ticketID) {
		return 0, nil
	}
	const query = `
        UPDATE ticket_assignments SET status='COMPLETED'
        WHERE ticket_id=$1 AND status = ANY($2::text[])`
	cmd, err := r.db.Exec(ctx, query, ticketID, statusStrings(statuses))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *assignmentRepository) Record(ctx context.Context, a *domain.Assignment) error {
	const query = `
        INSERT INTO ticket_assignments (ticket_id, agent_id, category_id, status, assigned_at, notification_sent)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		a.TicketID,
		a.AgentID,
		a.CategoryID,
		a.Status,
		a.AssignedAt,
		a.NotificationSent,
	).Scan(&a.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeAssignmentIndex {
		return ErrActiveAssignment
	}
	return err
}

func (r *assignmentRepository) ActiveForTicket(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	if !validID(ticketID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + assignmentColumns + ` FROM ticket_assignments
        WHERE ticket_id=$1 AND status IN ` + activeStatusesSQL + `
        ORDER BY assigned_at DESC LIMIT 1`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, ticketID))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	if !validID(ticketID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM ticket_assignments WHERE ticket_id=$1 ORDER BY assigned_at DESC, id DESC`,
		ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) CountOpenActive(ctx context.Context, agentIDs []string) (map[string]int, error) {
	loads := make(map[string]int, len(agentIDs))
	if len(agentIDs) == 0 {
		return loads, nil
	}
	query := `
        SELECT ta.agent_id::text, COUNT(*)
        FROM ticket_assignments ta
        JOIN tickets t ON t.id = ta.ticket_id
        WHERE ta.agent_id = ANY($1::uuid[]) AND t.status='OPEN' AND ta.status IN ` + activeStatusesSQL + `
        GROUP BY ta.agent_id`
	rows, err := r.db.Query(ctx, query, agentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			agentID string
			count   int
		)
		if err := rows.Scan(&agentID, &count); err != nil {
			return nil, err
		}
		loads[agentID] = count
	}
	return loads, rows.Err()
}

func (r *assignmentRepository) CountActiveAgents(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT agent_id) FROM ticket_assignments WHERE status IN `+activeStatusesSQL).Scan(&count)
	return count, err
}

func (r *assignmentRepository) MarkNotified(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE ticket_assignments SET notification_sent=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assignmentRepository) DeleteByAgent(ctx context.Context, agentID string) error {
	if !validID(agentID) {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_assignments WHERE agent_id=$1`, agentID)
	return err
}

func (r *assignmentRepository) DeleteByTicketCustomer(ctx context.Context, customerID string) error {
	if !validID(customerID) {
		return nil
	}
	const query = `
        DELETE FROM ticket_assignments
        WHERE ticket_id IN (SELECT id FROM tickets WHERE customer_id=$1)`
	_, err := r.db.Exec(ctx, query, customerID)
	return err
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(
		&a.ID,
		&a.TicketID,
		&a.AgentID,
		&a.CategoryID,
		&a.Status,
		&a.AssignedAt,
		&a.NotificationSent,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
