package domain

// Location is where the reported issue happened.
type Location struct {
	ID       string
	Name     string
	Type     string
	ParentID *string
}
