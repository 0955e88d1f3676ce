package model

import "time"

// NoticeLevel classifies a notification for styling.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notification is a user-visible notice raised by an action, such as a
// failed request or a sent message. Notices are kept as history.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// Level selects the modal styling.
	Level NoticeLevel `json:"level" db:"level"`

	// Title is the short heading, e.g. "Failed!".
	Title string `json:"title" db:"title"`

	// Text is the human-readable body.
	Text string `json:"text" db:"text"`

	// Read indicates whether the user has dismissed this notice.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notice was raised.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
