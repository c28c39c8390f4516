package repository

import (
	"context"

	"github.com/deskflow/support-desk/internal/domain"
)

type commentRepository struct {
	db DBTX
}

// NewCommentRepository returns a Postgres-backed comment store.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, content, internal, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query, c.TicketID, c.AuthorID, c.Content, c.Internal, c.CreatedAt).Scan(&c.ID)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	if !validID(ticketID) {
		return nil, nil
	}
	const query = `
        SELECT id, ticket_id, author_id, content, internal, created_at
        FROM comments
        WHERE ticket_id=$1 AND ($2 OR NOT internal)
        ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Content, &c.Internal, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	if !validID(authorID) {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM comments WHERE author_id=$1`, authorID)
	return err
}

func (r *commentRepository) DeleteByTicketCustomer(ctx context.Context, customerID string) error {
	if !validID(customerID) {
		return nil
	}
	const query = `
        DELETE FROM comments
        WHERE ticket_id IN (SELECT id FROM tickets WHERE customer_id=$1)`
	_, err := r.db.Exec(ctx, query, customerID)
	return err
}
