package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	msg, ok := Parse("  Delete  outbox ")
	require.True(t, ok)
	assert.Equal(t, "delete", msg.Name)
	assert.Equal(t, []string{"outbox"}, msg.Args)

	_, ok = Parse("   ")
	assert.False(t, ok)
}

func TestUpdate_EnterEmitsCommand(t *testing.T) {
	m := New([]string{"refresh"}, 80, 24)
	m.input.SetValue("refresh")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(CommandMsg)
	require.True(t, ok)
	assert.Equal(t, "refresh", msg.Name)
	assert.Empty(t, m.input.Value())
}

func TestUpdate_EnterOnBlankIsNoop(t *testing.T) {
	m := New(nil, 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
