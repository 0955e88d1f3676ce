package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
	"github.com/nhle/webmail/internal/ui/mailbox"
)

// BackMsg signals the parent to navigate back to the mailbox.
type BackMsg struct{}

// DeleteRequestMsg asks the parent to delete the shown message.
type DeleteRequestMsg struct {
	Message model.Message
	Listing model.ListingType
}

// ExportRequestMsg asks the parent to save the shown message to disk.
type ExportRequestMsg struct {
	Message model.Message
}

// Model is the single message view.
type Model struct {
	message    *model.Message
	listing    model.ListingType
	viewport   viewport.Model
	keys       *keys.KeyMap
	dateFormat string
	width      int
	height     int
}

// New creates a new viewer model.
func New(k *keys.KeyMap, dateFormat string, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport:   vp,
		keys:       k,
		dateFormat: dateFormat,
		width:      width,
		height:     height,
	}
}

// Init returns the initial command for the viewer.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetMessage shows msg from the given listing.
func (m *Model) SetMessage(msg model.Message, listing model.ListingType) {
	m.message = &msg
	m.listing = listing
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Clear drops the current selection.
func (m *Model) Clear() {
	m.message = nil
	m.viewport.SetContent("")
}

// Selected returns the shown message and its listing.
func (m Model) Selected() (model.Message, model.ListingType, bool) {
	if m.message == nil {
		return model.Message{}, "", false
	}
	return *m.message, m.listing, true
}

// Update handles messages for the viewer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			if m.message != nil {
				req := DeleteRequestMsg{Message: *m.message, Listing: m.listing}
				return m, func() tea.Msg { return req }
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.Export):
			if m.message != nil {
				req := ExportRequestMsg{Message: *m.message}
				return m, func() tea.Msg { return req }
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the viewer.
func (m Model) View() string {
	if m.message == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the header block and body for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(msg.Subject))
	sections = append(sections, theme.TabStyle(true).Render(m.listing.Title()))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(msg.Sender.Username),
	))
	sections = append(sections, fmt.Sprintf(
		"%s    %s",
		metaStyle.Render("To:"),
		valStyle.Render(msg.Receiver.Username),
	))
	if when := mailbox.FormatTime(msg.CreatedAt, m.dateFormat); when != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(when),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := msg.Message
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	} else if m.width > 4 {
		body = lipgloss.NewStyle().Width(m.width - 4).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the viewer dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.message != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
