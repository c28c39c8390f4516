package repository

import (
	"context"

	"github.com/deskflow/support-desk/internal/domain"
)

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository returns a Postgres-backed category lookup.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var c domain.Category
	err := r.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, '') FROM categories WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

type locationRepository struct {
	db DBTX
}

// NewLocationRepository returns a Postgres-backed location lookup.
func NewLocationRepository(db DBTX) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var l domain.Location
	err := r.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(type, ''), parent_id::text FROM locations WHERE id=$1`, id,
	).Scan(&l.ID, &l.Name, &l.Type, &l.ParentID)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}
