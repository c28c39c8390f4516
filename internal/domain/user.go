package domain

import "time"

// UserRole enumerates the roles known to the desk.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleAgent    UserRole = "AGENT"
	UserRoleCustomer UserRole = "CUSTOMER"
)

// User is read-mostly reference data for the ticket core.
type User struct {
	ID           string
	Name         string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Role         UserRole
	Enabled      bool
	CategoryIDs  []string
	CreatedAt    time.Time
}

// InCategory reports whether the user belongs to categoryID.
func (u *User) InCategory(categoryID string) bool {
	for _, id := range u.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}
