package domain

// Category groups tickets and restricts which agents may be auto-assigned.
type Category struct {
	ID          string
	Name        string
	Description string
}
