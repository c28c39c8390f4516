package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/support-desk/internal/domain"
)

const userColumns = `u.id, u.name, u.email, COALESCE(u.phone_number, ''), u.password_hash, u.role, u.enabled,
        COALESCE(ARRAY(SELECT uc.category_id::text FROM user_categories uc WHERE uc.user_id=u.id ORDER BY uc.category_id), '{}'),
        u.created_at`

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE LOWER(u.email)=LOWER($1)`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *userRepository) ListAgentsByCategory(ctx context.Context, categoryID string) ([]domain.User, error) {
	if !validID(categoryID) {
		return nil, nil
	}
	const query = `SELECT ` + userColumns + `
        FROM users u
        JOIN user_categories c ON c.user_id = u.id
        WHERE c.category_id=$1 AND u.role='AGENT' AND u.enabled
        ORDER BY u.id::text`
	return r.list(ctx, query, categoryID)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users u WHERE u.role=$1 ORDER BY u.id::text`, string(role))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM user_categories WHERE user_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.Role,
		&user.Enabled,
		&user.CategoryIDs,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
