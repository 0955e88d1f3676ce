package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/webmail/internal/model"
)

// SaveDraft inserts a new draft or updates an existing one by ID.
// Generates a UUID if ID is empty and returns the stored draft.
func (s *SQLiteStore) SaveDraft(ctx context.Context, draft model.Draft) (model.Draft, error) {
	if draft.SenderID == 0 {
		return model.Draft{}, fmt.Errorf("draft sender must be set")
	}
	if draft.IsEmpty() {
		return model.Draft{}, fmt.Errorf("draft is empty")
	}

	now := time.Now().UTC()
	draft.UpdatedAt = now
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO drafts (
			id, sender_id, sender_name, receiver_id, receiver_name,
			subject, body, created_at, updated_at
		) VALUES (
			:id, :sender_id, :sender_name, :receiver_id, :receiver_name,
			:subject, :body, :created_at, :updated_at
		)
		ON CONFLICT(id) DO UPDATE SET
			receiver_id = excluded.receiver_id,
			receiver_name = excluded.receiver_name,
			subject = excluded.subject,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		draft,
	)
	if err != nil {
		return model.Draft{}, fmt.Errorf("saving draft %s: %w", draft.ID, err)
	}
	return draft, nil
}

// GetDraft retrieves a single draft by ID.
func (s *SQLiteStore) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	var draft model.Draft
	err := s.db.GetContext(ctx, &draft, "SELECT * FROM drafts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft %s: %w", id, err)
	}
	return &draft, nil
}

// GetDrafts returns the drafts written by senderID, most recently edited
// first.
func (s *SQLiteStore) GetDrafts(ctx context.Context, senderID int64) ([]model.Draft, error) {
	var drafts []model.Draft
	err := s.db.SelectContext(ctx, &drafts,
		"SELECT * FROM drafts WHERE sender_id = ? ORDER BY updated_at DESC, rowid DESC",
		senderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft removes a draft by ID.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting draft %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("draft %s not found", id)
	}
	return nil
}
