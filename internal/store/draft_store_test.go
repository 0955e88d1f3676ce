package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/tests/testutil"
)

func TestSaveDraft_AssignsIDAndTimestamps(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveDraft(ctx, model.Draft{SenderID: 1, SenderName: "alice", Subject: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := s.GetDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Subject)
	assert.Equal(t, "alice", got.SenderName)
}

func TestSaveDraft_UpdatesExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveDraft(ctx, model.Draft{SenderID: 1, Subject: "first"})
	require.NoError(t, err)

	saved.Subject = "second"
	saved.ReceiverID = 2
	saved.ReceiverName = "bob"
	_, err = s.SaveDraft(ctx, saved)
	require.NoError(t, err)

	drafts, err := s.GetDrafts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "second", drafts[0].Subject)
	assert.Equal(t, int64(2), drafts[0].ReceiverID)
	assert.Equal(t, "bob", drafts[0].ReceiverName)
}

func TestSaveDraft_RejectsEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.SaveDraft(context.Background(), model.Draft{SenderID: 1, Subject: "  "})
	assert.Error(t, err)

	_, err = s.SaveDraft(context.Background(), model.Draft{Subject: "no sender"})
	assert.Error(t, err)
}

func TestGetDrafts_ScopedToSender(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.SaveDraft(ctx, model.Draft{SenderID: 1, Subject: "mine"})
	require.NoError(t, err)
	_, err = s.SaveDraft(ctx, model.Draft{SenderID: 2, Subject: "theirs"})
	require.NoError(t, err)

	drafts, err := s.GetDrafts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "mine", drafts[0].Subject)

	none, err := s.GetDrafts(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteDraft(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveDraft(ctx, model.Draft{SenderID: 1, Body: "text"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDraft(ctx, saved.ID))

	_, err = s.GetDraft(ctx, saved.ID)
	assert.Error(t, err)
	assert.Error(t, s.DeleteDraft(ctx, saved.ID))
}
