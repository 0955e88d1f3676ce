package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/store"
	"github.com/nhle/webmail/internal/theme"
)

// historyLimit caps how many notices are listed.
const historyLimit = 200

// CloseMsg signals the parent to close the history view.
type CloseMsg struct{}

type historyMode int

const (
	modeList historyMode = iota
	modeConfirmClear
)

type formBindings struct {
	confirm bool
}

type noticesLoadedMsg struct {
	notices []model.Notification
	err     error
}

type historyChangedMsg struct{ err error }

// Model lists past notices, newest first.
type Model struct {
	mode        historyMode
	store       store.Store
	keys        *keys.KeyMap
	notices     []model.Notification
	errorsOnly  bool
	selectedIdx int
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new history model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Open resets the view and loads the notices.
func (m *Model) Open() tea.Cmd {
	m.mode = modeList
	m.statusMsg = ""
	m.selectedIdx = 0
	return m.loadNotices()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case noticesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.notices = msg.notices
		if m.selectedIdx >= len(m.notices) {
			m.selectedIdx = max(len(m.notices)-1, 0)
		}
		return m, nil

	case historyChangedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.mode = modeList
		return m, m.loadNotices()

	case tea.KeyMsg:
		if m.mode == modeConfirmClear {
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmClear {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.notices) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notices)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.notices) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.notices) - 1
			}
		}
		return m, nil

	case msg.String() == "e":
		m.errorsOnly = !m.errorsOnly
		m.selectedIdx = 0
		return m, m.loadNotices()

	case key.Matches(msg, m.keys.Clear):
		if len(m.notices) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmClear
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear notice history?").
				Description("Every stored notice will be removed.").
				Affirmative("Yes, clear").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.clearNotices()
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the notice history.
func (m Model) View() string {
	if m.mode == modeConfirmClear && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	title := "Notice History"
	if m.errorsOnly {
		title += " (failures)"
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.notices) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing to show."))
	} else {
		for i, n := range m.notices {
			label := fmt.Sprintf("%s  %s  %s  %s",
				theme.NoticeBadge(n.Level),
				theme.DimmedStyle.Render(n.CreatedAt.Local().Format("02 Jan 15:04:05")),
				n.Title, n.Text)
			if !n.Read {
				label += " " + lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("•")
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"e failures only | x clear | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) loadNotices() tea.Cmd {
	s := m.store
	filter := store.NotificationFilter{Limit: historyLimit}
	if m.errorsOnly {
		level := model.NoticeError
		filter.Level = &level
	}
	return func() tea.Msg {
		notices, err := s.GetNotifications(context.Background(), filter)
		return noticesLoadedMsg{notices: notices, err: err}
	}
}

func (m Model) clearNotices() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.ClearNotifications(context.Background())
		return historyChangedMsg{err: err}
	}
}
