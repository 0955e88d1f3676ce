package notice

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
)

func TestNotice_QueueInOrder(t *testing.T) {
	m := New(80)
	assert.False(t, m.Active())

	m.Push(model.Notification{ID: "a", Level: model.NoticeError, Title: "Failed!", Text: "first"})
	m.Push(model.Notification{ID: "b", Level: model.NoticeSuccess, Title: "Deleted!", Text: "second"})

	assert.Contains(t, m.View(), "first")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, DismissedMsg{ID: "a"}, cmd())

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "b", cur.ID)
	assert.Contains(t, m.View(), "second")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, m.Active())
	assert.Empty(t, m.View())
}

func TestNotice_IgnoresNonKeys(t *testing.T) {
	m := New(80)
	m.Push(model.Notification{ID: "a"})

	m, cmd := m.Update(tea.WindowSizeMsg{Width: 10, Height: 10})
	assert.Nil(t, cmd)
	assert.True(t, m.Active())
}
