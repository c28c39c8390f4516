package memory

import (
	"time"

	"github.com/deskflow/support-desk/internal/domain"
)

// Demo holds the records created by SeedDemo.
type Demo struct {
	Admin    domain.User
	Agent    domain.User
	Customer domain.User
	Category domain.Category
	Location domain.Location
}

// SeedDemo adds one admin, one agent in a "General Support" category, one
// customer and a location. Every user gets passwordHash.
func (s *Store) SeedDemo(passwordHash string, now time.Time) Demo {
	var d Demo
	d.Category = s.AddCategory(domain.Category{Name: "General Support", Description: "Default category"})
	d.Location = s.AddLocation(domain.Location{Name: "Head Office", Type: "BUILDING"})
	d.Admin = s.AddUser(domain.User{
		Name:         "System Admin",
		Email:        "admin@example.com",
		PasswordHash: passwordHash,
		Role:         domain.UserRoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
	})
	d.Agent = s.AddUser(domain.User{
		Name:         "Default Agent",
		Email:        "agent@example.com",
		PasswordHash: passwordHash,
		Role:         domain.UserRoleAgent,
		Enabled:      true,
		CategoryIDs:  []string{d.Category.ID},
		CreatedAt:    now,
	})
	d.Customer = s.AddUser(domain.User{
		Name:         "Test Customer",
		Email:        "customer@example.com",
		PasswordHash: passwordHash,
		Role:         domain.UserRoleCustomer,
		Enabled:      true,
		CreatedAt:    now,
	})
	return d
}
