package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/theme"
)

// AnsweredMsg reports the user's choice. Escape counts as no.
type AnsweredMsg struct {
	Yes bool
}

type formBindings struct {
	confirm bool
}

// Model is a yes/no dialog shown on top of the current view.
type Model struct {
	form  *huh.Form
	fb    *formBindings
	width int
}

// New creates an idle confirm dialog.
func New(width int) Model {
	return Model{fb: &formBindings{}, width: width}
}

// Start opens the dialog with the given title and text. affirmative
// labels the yes button and defaults to "Yes".
func (m *Model) Start(title, text, affirmative string) tea.Cmd {
	m.fb = &formBindings{}
	if affirmative == "" {
		affirmative = "Yes"
	}

	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"))

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(text).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithKeyMap(km).WithWidth(m.formWidth()).WithShowHelp(false)

	return m.form.Init()
}

// Active reports whether the dialog is waiting for an answer.
func (m Model) Active() bool {
	return m.form != nil
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		yes := m.fb.confirm
		m.form = nil
		return m, func() tea.Msg { return AnsweredMsg{Yes: yes} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return AnsweredMsg{Yes: false} }
	}

	return m, cmd
}

// View renders the dialog box.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorYellow).
		Render(m.form.View())
}

// SetSize updates the dialog width.
func (m *Model) SetSize(width int) {
	m.width = width
}

func (m Model) formWidth() int {
	w := m.width - 10
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}
