package mailbox

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	"github.com/nhle/webmail/internal/theme"
)

// OpenMsg is sent when the user opens a message.
type OpenMsg struct {
	Message model.Message
	Listing model.ListingType
}

// DeleteRequestMsg is sent when the user asks to delete a message.
type DeleteRequestMsg struct {
	Message model.Message
	Listing model.ListingType
}

// Model is the inbox/outbox listing view.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	listing model.ListingType
	inbox   []model.Message
	outbox  []model.Message
	width   int
	height  int
}

// New creates a new mailbox model showing the inbox.
func New(k *keys.KeyMap, dateFormat string, width, height int) Model {
	delegate := ItemDelegate{dateFormat: dateFormat}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("message", "messages")
	l.DisableQuitKeybindings()

	return Model{
		list:    l,
		keys:    k,
		listing: model.ListingInbox,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetState copies both listings from a store snapshot and refreshes the
// visible one.
func (m *Model) SetState(st state.State) tea.Cmd {
	m.inbox = state.SelectInbox(st)
	m.outbox = state.SelectOutbox(st)
	return m.refresh()
}

// Listing returns the listing currently shown.
func (m Model) Listing() model.ListingType {
	return m.listing
}

// SetListing switches the visible listing.
func (m *Model) SetListing(l model.ListingType) tea.Cmd {
	if !l.Valid() || l == m.listing {
		return nil
	}
	m.listing = l
	m.list.ResetFilter()
	m.list.Select(0)
	return m.refresh()
}

// Filtering reports whether the filter input has focus, in which case
// the parent must not intercept keys.
func (m Model) Filtering() bool {
	return m.list.SettingFilter()
}

// SelectedMessage returns the highlighted message.
func (m Model) SelectedMessage() (model.Message, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.Message{}, false
	}
	return item.Message, true
}

// refresh rebuilds the list items. Messages are shown newest first; the
// store keeps backend order.
func (m *Model) refresh() tea.Cmd {
	src := m.inbox
	if m.listing == model.ListingOutbox {
		src = m.outbox
	}

	items := make([]list.Item, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		items = append(items, MessageItem{Message: src[i], Listing: m.listing})
	}
	return m.list.SetItems(items)
}

// Update handles messages for the mailbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		switch {
		case key.Matches(keyMsg, m.keys.Select):
			item, ok := m.list.SelectedItem().(MessageItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return OpenMsg{Message: item.Message, Listing: item.Listing}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			item, ok := m.list.SelectedItem().(MessageItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return DeleteRequestMsg{Message: item.Message, Listing: item.Listing}
			}

		case key.Matches(keyMsg, m.keys.Inbox):
			return m, m.SetListing(model.ListingInbox)

		case key.Matches(keyMsg, m.keys.Outbox):
			return m, m.SetListing(model.ListingOutbox)

		case key.Matches(keyMsg, m.keys.SwitchListing):
			if m.listing == model.ListingInbox {
				return m, m.SetListing(model.ListingOutbox)
			}
			return m, m.SetListing(model.ListingInbox)
		}
	}

	// Delegate to the list for navigation and filtering
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the tabs and the active listing.
func (m Model) View() string {
	tabs := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.TabStyle(m.listing == model.ListingInbox).
			Render(fmt.Sprintf("%s (%d)", model.ListingInbox.Title(), len(m.inbox))),
		" ",
		theme.TabStyle(m.listing == model.ListingOutbox).
			Render(fmt.Sprintf("%s (%d)", model.ListingOutbox.Title(), len(m.outbox))),
	)

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, tabs, m.renderEmptyState())
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabs, m.list.View())
}

// renderEmptyState shows guidance text when the listing is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.listing == model.ListingOutbox {
		return style.Render("No sent messages.\n\nPress c to compose one.")
	}
	return style.Render("Your inbox is empty.\n\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
