package model

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// ListingType tags which collection a message belongs to for the
// current user.
type ListingType string

const (
	ListingInbox  ListingType = "inbox"
	ListingOutbox ListingType = "outbox"
)

// Valid reports whether l names a known collection.
func (l ListingType) Valid() bool {
	return l == ListingInbox || l == ListingOutbox
}

// Title returns the display label of the listing.
func (l ListingType) Title() string {
	switch l {
	case ListingInbox:
		return "Inbox"
	case ListingOutbox:
		return "Outbox"
	default:
		return string(l)
	}
}

// Message is a single piece of mail as returned by the backend.
type Message struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Sender    User      `json:"sender"`
	Receiver  User      `json:"receiver"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Counterpart returns the user shown next to the message in a listing:
// the sender for inbox entries and the receiver for outbox entries.
func (m Message) Counterpart(l ListingType) User {
	if l == ListingOutbox {
		return m.Receiver
	}
	return m.Sender
}

// Mailbox is the payload of the message listing endpoint.
type Mailbox struct {
	Inbox  []Message `json:"inbox"`
	Outbox []Message `json:"outbox"`
}

// ComposeRequest is the body sent when submitting a new message.
type ComposeRequest struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

// Credentials is the body of the login and register endpoints.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// timestampLayouts lists the formats the backend is known to emit.
// The server serializes Python datetimes with str(), which uses a space
// separator and optional microseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that decodes the backend's date formats.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses any of the known layouts. Null and empty strings
// yield the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("parsing timestamp %q: unknown format", raw)
}

// MarshalJSON writes the time as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}
