package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// View renders the help overlay together with the palette commands.
func (m Model) View(commands []string) string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	parts := []string{title, helpText}
	if len(commands) > 0 {
		parts = append(parts, "",
			theme.TitleStyle.Render("Commands"),
			theme.DimmedStyle.Render(joinCommands(commands)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

// Update handles messages for the help view.
func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func joinCommands(commands []string) string {
	out := ""
	for i, c := range commands {
		if i > 0 {
			out += "  "
		}
		out += ":" + c
	}
	return out
}
