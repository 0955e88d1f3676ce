package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": 7,
		"subject": "Lunch",
		"message": "Noon?",
		"sender": {"id": 1, "username": "alice"},
		"receiver": {"id": 2, "username": "bob"},
		"createdAt": "2021-03-04 12:30:45.123456"
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))

	assert.Equal(t, int64(7), msg.ID)
	assert.Equal(t, "alice", msg.Sender.Username)
	assert.Equal(t, "bob", msg.Receiver.Username)
	assert.Equal(t, 2021, msg.CreatedAt.Year())
	assert.Equal(t, time.March, msg.CreatedAt.Month())
	assert.Equal(t, 30, msg.CreatedAt.Minute())
}

func TestTimestampLayouts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		zero bool
	}{
		{name: "rfc3339", raw: `"2021-03-04T12:30:45Z"`},
		{name: "python str", raw: `"2021-03-04 12:30:45"`},
		{name: "python isoformat", raw: `"2021-03-04T12:30:45.5"`},
		{name: "null", raw: `null`, zero: true},
		{name: "empty", raw: `""`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.UnmarshalJSON([]byte(tt.raw)))
			assert.Equal(t, tt.zero, ts.IsZero())
		})
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))
}

func TestCounterpart(t *testing.T) {
	msg := Message{
		Sender:   User{ID: 1, Username: "alice"},
		Receiver: User{ID: 2, Username: "bob"},
	}

	assert.Equal(t, "alice", msg.Counterpart(ListingInbox).Username)
	assert.Equal(t, "bob", msg.Counterpart(ListingOutbox).Username)
}

func TestListingTypeValid(t *testing.T) {
	assert.True(t, ListingInbox.Valid())
	assert.True(t, ListingOutbox.Valid())
	assert.False(t, ListingType("trash").Valid())
}

func TestDraftIsEmpty(t *testing.T) {
	assert.True(t, Draft{SenderID: 1, Subject: "  "}.IsEmpty())
	assert.False(t, Draft{Body: "hi"}.IsEmpty())
	assert.False(t, Draft{ReceiverID: 3}.IsEmpty())
}
