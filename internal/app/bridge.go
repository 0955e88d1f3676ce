package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/webmail/internal/model"
)

// noticeMsg carries a notice raised by a thunk to the UI.
type noticeMsg struct {
	notice model.Notification
}

// confirmRequest is a pending yes/no question from a thunk.
type confirmRequest struct {
	title       string
	text        string
	affirmative string
	reply       chan bool
}

// confirmRequestMsg carries a confirm request to the UI.
type confirmRequestMsg struct {
	req confirmRequest
}

// Bridge lets thunks running in command goroutines raise notices and ask
// for confirmation. The UI drains both channels with WaitForNotice and
// WaitForConfirm, re-arming after every message.
type Bridge struct {
	notices  chan model.Notification
	confirms chan confirmRequest
}

// NewBridge creates a bridge with room for a burst of notices.
func NewBridge() *Bridge {
	return &Bridge{
		notices:  make(chan model.Notification, 32),
		confirms: make(chan confirmRequest),
	}
}

// Notify queues n for display. Missing ids and timestamps are filled in
// so the modal and the history row share them.
func (b *Bridge) Notify(n model.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Level == "" {
		n.Level = model.NoticeInfo
	}
	b.notices <- n
}

// Confirm blocks until the user answers or ctx is done.
func (b *Bridge) Confirm(ctx context.Context, title, text, affirmative string) bool {
	req := confirmRequest{title: title, text: text, affirmative: affirmative, reply: make(chan bool, 1)}

	select {
	case b.confirms <- req:
	case <-ctx.Done():
		return false
	}

	select {
	case yes := <-req.reply:
		return yes
	case <-ctx.Done():
		return false
	}
}

// WaitForNotice returns a tea.Cmd that blocks until the next notice.
func (b *Bridge) WaitForNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{notice: <-b.notices}
	}
}

// WaitForConfirm returns a tea.Cmd that blocks until the next confirm
// request.
func (b *Bridge) WaitForConfirm() tea.Cmd {
	return func() tea.Msg {
		return confirmRequestMsg{req: <-b.confirms}
	}
}
