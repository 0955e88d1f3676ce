package history

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/tests/testutil"
)

func seed(t *testing.T) *Model {
	t.Helper()
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNotification(ctx, model.Notification{Level: model.NoticeError, Title: "Failed!", Text: "boom"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{Level: model.NoticeSuccess, Title: "Success!", Text: "sent"})
	require.NoError(t, err)

	m := New(s, keys.DefaultKeyMap(), 100, 30)
	cmd := m.Open()
	m, _ = m.Update(cmd())
	return &m
}

func TestHistory_ListsNotices(t *testing.T) {
	m := seed(t)
	require.Len(t, m.notices, 2)
	assert.Contains(t, m.View(), "boom")
	assert.Contains(t, m.View(), "sent")
}

func TestHistory_ErrorsOnlyToggle(t *testing.T) {
	m := seed(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())

	require.Len(t, next.notices, 1)
	assert.Equal(t, "boom", next.notices[0].Text)
	assert.Contains(t, next.View(), "(failures)")
}

func TestHistory_Clear(t *testing.T) {
	m := seed(t)

	next, cmd := m.Update(m.clearNotices()())
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	assert.Empty(t, next.notices)
}

func TestHistory_ClearKeyOpensConfirm(t *testing.T) {
	m := seed(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, modeConfirmClear, next.mode)
}

func TestHistory_EscCloses(t *testing.T) {
	m := seed(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}
