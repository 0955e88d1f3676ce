package viewer

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
)

func sample() model.Message {
	return model.Message{
		ID:       5,
		Subject:  "Quarterly report",
		Message:  "Numbers attached.",
		Sender:   model.User{ID: 1, Username: "alice"},
		Receiver: model.User{ID: 2, Username: "bob"},
	}
}

func TestView_ShowsHeaderAndBody(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "", 80, 24)
	m.SetMessage(sample(), model.ListingInbox)

	out := m.View()
	assert.Contains(t, out, "Quarterly report")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Numbers attached.")
}

func TestUpdate_Actions(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "", 80, 24)
	m.SetMessage(sample(), model.ListingOutbox)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.NotNil(t, cmd)
	del, ok := cmd().(DeleteRequestMsg)
	require.True(t, ok)
	assert.Equal(t, int64(5), del.Message.ID)
	assert.Equal(t, model.ListingOutbox, del.Listing)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.NotNil(t, cmd)
	_, ok = cmd().(ExportRequestMsg)
	assert.True(t, ok)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok = cmd().(BackMsg)
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "", 80, 24)
	m.SetMessage(sample(), model.ListingInbox)
	m.Clear()

	_, _, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "No message selected")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Nil(t, cmd)
}
