package drafts

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

// CloseMsg signals the parent to close the drafts view.
type CloseMsg struct{}

// ResumeMsg asks the parent to reopen the compose form with Draft.
type ResumeMsg struct {
	Draft model.Draft
}

type draftsMode int

const (
	modeList draftsMode = iota
	modeConfirmDelete
)

type formBindings struct {
	confirm bool
}

type draftsLoadedMsg struct {
	drafts []model.Draft
	err    error
}

type draftDeletedMsg struct{ err error }

// Model lists the unsent drafts of the logged-in user.
type Model struct {
	mode        draftsMode
	store       store.Store
	keys        *keys.KeyMap
	senderID    int64
	drafts      []model.Draft
	selectedIdx int
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	dateFormat  string
	width       int
	height      int
}

// New creates a new drafts model.
func New(s store.Store, k *keys.KeyMap, dateFormat string, width, height int) Model {
	return Model{
		mode:       modeList,
		store:      s,
		keys:       k,
		fb:         &formBindings{},
		dateFormat: dateFormat,
		width:      width, height: height,
	}
}

// Open switches to the drafts of senderID and loads them.
func (m *Model) Open(senderID int64) tea.Cmd {
	m.senderID = senderID
	m.mode = modeList
	m.statusMsg = ""
	m.selectedIdx = 0
	return m.loadDrafts()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case draftsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.drafts = msg.drafts
		if m.selectedIdx >= len(m.drafts) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.drafts) - 1
		}
		return m, nil

	case draftDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Draft deleted"
		}
		m.mode = modeList
		return m, m.loadDrafts()

	case tea.KeyMsg:
		if m.mode == modeConfirmDelete {
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.drafts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.drafts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.drafts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.drafts) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.drafts) == 0 {
			return m, nil
		}
		d := m.drafts[m.selectedIdx]
		return m, func() tea.Msg { return ResumeMsg{Draft: d} }

	case key.Matches(msg, m.keys.Delete):
		if len(m.drafts) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildConfirmForm() *huh.Form {
	subject := "(no subject)"
	if m.selectedIdx < len(m.drafts) && m.drafts[m.selectedIdx].Subject != "" {
		subject = m.drafts[m.selectedIdx].Subject
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Discard draft %q?", subject)).
				Affirmative("Yes, discard").
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
		if m.fb.confirm && m.selectedIdx < len(m.drafts) {
			return m, m.deleteDraft(m.drafts[m.selectedIdx].ID)
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

// View renders the drafts list.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Drafts"))
	b.WriteString("\n\n")

	if len(m.drafts) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No drafts. Leaving a half-written message saves one here."))
	} else {
		for i, d := range m.drafts {
			label := draftLabel(d, m.dateFormat)
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
		"enter resume | d discard | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func draftLabel(d model.Draft, layout string) string {
	subject := d.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	to := d.ReceiverName
	if to == "" {
		to = "nobody yet"
	}
	if layout == "" {
		layout = "2 Jan 06, 15:04"
	}
	return fmt.Sprintf("%s  to %s  %s",
		subject, to,
		theme.DimmedStyle.Render(d.UpdatedAt.Local().Format(layout)))
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

func (m Model) loadDrafts() tea.Cmd {
	s := m.store
	sender := m.senderID
	return func() tea.Msg {
		drafts, err := s.GetDrafts(context.Background(), sender)
		return draftsLoadedMsg{drafts: drafts, err: err}
	}
}

func (m Model) deleteDraft(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteDraft(context.Background(), id)
		return draftDeletedMsg{err: err}
	}
}
