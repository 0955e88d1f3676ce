package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
)

func TestBridge_NotifyFillsDefaults(t *testing.T) {
	b := NewBridge()
	b.Notify(model.Notification{Title: "Failed!", Text: "boom"})

	msg, ok := b.WaitForNotice()().(noticeMsg)
	require.True(t, ok)
	assert.NotEmpty(t, msg.notice.ID)
	assert.False(t, msg.notice.CreatedAt.IsZero())
	assert.Equal(t, model.NoticeInfo, msg.notice.Level)
	assert.Equal(t, "boom", msg.notice.Text)
}

func TestBridge_ConfirmRoundTrip(t *testing.T) {
	b := NewBridge()
	answer := make(chan bool, 1)

	go func() {
		answer <- b.Confirm(context.Background(), "Are you sure?", "You won't be able to revert this!", "Yes, delete it!")
	}()

	msg, ok := b.WaitForConfirm()().(confirmRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "Are you sure?", msg.req.title)
	assert.Equal(t, "Yes, delete it!", msg.req.affirmative)
	msg.req.reply <- true

	select {
	case yes := <-answer:
		assert.True(t, yes)
	case <-time.After(time.Second):
		t.Fatal("confirm did not return")
	}
}

func TestBridge_ConfirmCancelled(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, b.Confirm(ctx, "Are you sure?", "", ""))
}
