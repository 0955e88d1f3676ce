package model

import (
	"strings"
	"time"
)

// Draft is an unsent compose form kept in the local database.
type Draft struct {
	ID           string    `json:"id" db:"id"`
	SenderID     int64     `json:"sender_id" db:"sender_id"`
	SenderName   string    `json:"sender_name" db:"sender_name"`
	ReceiverID   int64     `json:"receiver_id" db:"receiver_id"`
	ReceiverName string    `json:"receiver_name" db:"receiver_name"`
	Subject      string    `json:"subject" db:"subject"`
	Body         string    `json:"body" db:"body"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsEmpty reports whether the draft carries nothing worth keeping.
func (d Draft) IsEmpty() bool {
	return d.ReceiverID == 0 &&
		strings.TrimSpace(d.Subject) == "" &&
		strings.TrimSpace(d.Body) == ""
}

// Request converts the draft into the compose request body.
func (d Draft) Request() ComposeRequest {
	return ComposeRequest{
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Subject:    d.Subject,
		Message:    d.Body,
	}
}
