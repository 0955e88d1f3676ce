package notice

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// DismissedMsg is emitted when the user closes a notice.
type DismissedMsg struct {
	ID string
}

// Model shows queued notices one at a time as a modal.
type Model struct {
	queue []model.Notification
	width int
}

// New creates an empty notice modal.
func New(width int) Model {
	return Model{width: width}
}

// Push queues n behind any notice already shown.
func (m *Model) Push(n model.Notification) {
	m.queue = append(m.queue, n)
}

// Active reports whether a notice is on screen.
func (m Model) Active() bool {
	return len(m.queue) > 0
}

// Current returns the notice on screen.
func (m Model) Current() (model.Notification, bool) {
	if len(m.queue) == 0 {
		return model.Notification{}, false
	}
	return m.queue[0], true
}

// Update dismisses the current notice on any key press.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); !ok || len(m.queue) == 0 {
		return m, nil
	}

	id := m.queue[0].ID
	m.queue = m.queue[1:]
	return m, func() tea.Msg { return DismissedMsg{ID: id} }
}

// View renders the current notice.
func (m Model) View() string {
	n, ok := m.Current()
	if !ok {
		return ""
	}

	width := m.width - 10
	if width > 60 {
		width = 60
	}
	if width < 20 {
		width = 20
	}

	title := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.NoticeBadge(n.Level), " ",
		lipgloss.NewStyle().Bold(true).Render(n.Title))
	body := lipgloss.NewStyle().Width(width).Render(n.Text)
	hint := theme.HelpStyle.Render("press any key")

	return theme.NoticeStyle(n.Level).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint),
	)
}

// SetSize updates the modal width.
func (m *Model) SetSize(width int) {
	m.width = width
}
