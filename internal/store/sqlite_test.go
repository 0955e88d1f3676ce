package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/store"
	"github.com/nhle/webmail/tests/testutil"
)

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webmail.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{Text: "kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestCreateNotification_Defaults(t *testing.T) {
	s := testutil.NewTestStore(t)

	n, err := s.CreateNotification(context.Background(), model.Notification{Title: "Failed!", Text: "boom"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, model.NoticeInfo, n.Level)
	assert.False(t, n.CreatedAt.IsZero())

	_, err = s.CreateNotification(context.Background(), model.Notification{})
	assert.Error(t, err)
}

func TestGetNotifications_Filters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older, err := s.CreateNotification(ctx, model.Notification{
		Level: model.NoticeError, Text: "older", CreatedAt: base,
	})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{
		Level: model.NoticeSuccess, Text: "newer", CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	all, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].Text)
	assert.Equal(t, "older", all[1].Text)

	level := model.NoticeError
	errs, err := s.GetNotifications(ctx, store.NotificationFilter{Level: &level})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "older", errs[0].Text)

	require.NoError(t, s.MarkNotificationRead(ctx, older.ID))
	unread, err := s.GetNotifications(ctx, store.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "newer", unread[0].Text)

	limited, err := s.GetNotifications(ctx, store.NotificationFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMarkNotificationRead_Unknown(t *testing.T) {
	s := testutil.NewTestStore(t)
	assert.Error(t, s.MarkNotificationRead(context.Background(), "missing"))
}

func TestClearNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNotification(ctx, model.Notification{Text: "one"})
	require.NoError(t, err)
	require.NoError(t, s.ClearNotifications(ctx))

	got, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
