package models

import "time"

// Notification is a message produced by a leave transition for one recipient.
type Notification struct {
	ID              string    `db:"id" json:"id"`
	RecipientUserID string    `db:"recipient_user_id" json:"recipient_user_id"`
	LeaveRequestID  *string   `db:"leave_request_id" json:"leave_request_id,omitempty"`
	Message         string    `db:"message" json:"message"`
	Read            bool      `db:"read" json:"read"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
