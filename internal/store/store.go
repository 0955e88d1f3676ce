package store

import (
	"context"

	"github.com/nhle/webmail/internal/model"
)

// NotificationFilter controls which notices GetNotifications returns.
type NotificationFilter struct {
	UnreadOnly bool
	Level      *model.NoticeLevel
	Limit      int
}

// Store defines the local persistence interface. Mail itself lives on the
// backend; only unsent drafts and the notice history are kept here.
type Store interface {
	// === Drafts ===

	SaveDraft(ctx context.Context, draft model.Draft) (model.Draft, error)
	GetDraft(ctx context.Context, id string) (*model.Draft, error)
	GetDrafts(ctx context.Context, senderID int64) ([]model.Draft, error)
	DeleteDraft(ctx context.Context, id string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error

	Close() error
}
