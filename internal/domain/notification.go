package domain

import "time"

// Notification is the persisted record of a message sent to a user.
type Notification struct {
	ID          string
	RecipientID string
	Title       string
	Message     string
	Read        bool
	CreatedAt   time.Time
}
