package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the notification does not exist for the recipient.
var ErrNotFound = errors.New("notification not found")

// Status enumerates notification read states.
type Status string

const (
	StatusUnread Status = "Unread"
	StatusRead   Status = "Read"
)

// Notification is the decision signal delivered to a representative.
type Notification struct {
	ID              uuid.UUID `json:"notification_id" db:"id"`
	RecipientUserID int64     `json:"recipient_user_id" db:"recipient_user_id"`
	Message         string    `json:"message" db:"message"`
	Status          Status    `json:"status" db:"status"`
	CreatedOn       time.Time `json:"created_on" db:"created_on"`
}
