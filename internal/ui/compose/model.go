package compose

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// SendMsg is dispatched when the form is submitted.
type SendMsg struct {
	Draft model.Draft
}

// AbortMsg is dispatched when the user leaves the form without sending.
// Draft holds whatever was typed and may be empty.
type AbortMsg struct {
	Draft model.Draft
}

// SearchFunc looks up users whose name contains query.
type SearchFunc func(query string) []model.User

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	draftID   string
	createdAt time.Time

	senderQuery   string
	senderID      int64
	receiverQuery string
	receiverID    int64
	subject       string
	body          string

	// names caches usernames seen in search results. Option funcs run
	// outside the update loop.
	mu    sync.Mutex
	names map[int64]string
}

func (fb *formBindings) remember(u model.User) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.names[u.ID] = u.Username
}

func (fb *formBindings) name(id int64) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.names[id]
}

// Model is the Bubble Tea model for composing a message.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	search SearchFunc
	width  int
	height int
}

// New creates a compose form that resolves users with search.
func New(search SearchFunc, width, height int) Model {
	return Model{
		fb:     &formBindings{names: make(map[int64]string)},
		search: search,
		width:  width,
		height: height,
	}
}

// StartNew opens an empty form sent from user.
func (m *Model) StartNew(user model.User) tea.Cmd {
	return m.StartFromDraft(model.Draft{
		SenderID:   user.ID,
		SenderName: user.Username,
	})
}

// StartFromDraft opens the form prefilled with d. Also used to restore
// the form after a failed send.
func (m *Model) StartFromDraft(d model.Draft) tea.Cmd {
	m.fb = &formBindings{
		draftID:       d.ID,
		createdAt:     d.CreatedAt,
		senderQuery:   d.SenderName,
		senderID:      d.SenderID,
		receiverQuery: d.ReceiverName,
		receiverID:    d.ReceiverID,
		subject:       d.Subject,
		body:          d.Body,
		names:         make(map[int64]string),
	}
	if d.SenderID != 0 {
		m.fb.names[d.SenderID] = d.SenderName
	}
	if d.ReceiverID != 0 {
		m.fb.names[d.ReceiverID] = d.ReceiverName
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// Reset closes the form.
func (m *Model) Reset() {
	m.form = nil
}

// Draft returns the current field values.
func (m Model) Draft() model.Draft {
	fb := m.fb
	return model.Draft{
		ID:           fb.draftID,
		SenderID:     fb.senderID,
		SenderName:   fb.name(fb.senderID),
		ReceiverID:   fb.receiverID,
		ReceiverName: fb.name(fb.receiverID),
		Subject:      fb.subject,
		Body:         fb.body,
		CreatedAt:    fb.createdAt,
	}
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		d := m.Draft()
		m.form = nil
		return m, func() tea.Msg { return SendMsg{Draft: d} }
	}
	if m.form.State == huh.StateAborted {
		d := m.Draft()
		m.form = nil
		return m, func() tea.Msg { return AbortMsg{Draft: d} }
	}

	return m, cmd
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New Message"
	if m.fb.draftID != "" {
		title = "Draft"
	}

	content := theme.TitleStyle.Render(title) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildForm() *huh.Form {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("From").
				Placeholder("search sender...").
				Value(&m.fb.senderQuery),
			huh.NewSelect[int64]().
				Title("Sender").
				OptionsFunc(m.userOptions(&m.fb.senderQuery, &m.fb.senderID), &m.fb.senderQuery).
				Value(&m.fb.senderID).
				Validate(validateUser("Sender")),
			huh.NewInput().
				Title("To").
				Placeholder("search receiver...").
				Value(&m.fb.receiverQuery),
			huh.NewSelect[int64]().
				Title("Receiver").
				OptionsFunc(m.userOptions(&m.fb.receiverQuery, &m.fb.receiverID), &m.fb.receiverQuery).
				Value(&m.fb.receiverID).
				Validate(validateUser("Receiver")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject).
				Validate(validateRequired("Subject")),
			huh.NewText().
				Title("Message").
				Value(&m.fb.body).
				Validate(validateRequired("Message")),
		),
	).WithKeyMap(km).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// userOptions returns the option source of a user select. The current
// choice stays selectable even when the query no longer matches it.
func (m *Model) userOptions(query *string, selected *int64) func() []huh.Option[int64] {
	fb := m.fb
	search := m.search
	return func() []huh.Option[int64] {
		var opts []huh.Option[int64]
		seen := make(map[int64]bool)

		if id := *selected; id != 0 {
			if name := fb.name(id); name != "" {
				opts = append(opts, huh.NewOption(name, id))
				seen[id] = true
			}
		}

		q := strings.TrimSpace(*query)
		if q != "" && search != nil {
			for _, u := range search(q) {
				fb.remember(u)
				if !seen[u.ID] {
					opts = append(opts, huh.NewOption(u.Username, u.ID))
					seen[u.ID] = true
				}
			}
		}

		if len(opts) == 0 {
			return []huh.Option[int64]{huh.NewOption("type a name above", int64(0))}
		}
		return opts
	}
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

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateUser(fieldName string) func(int64) error {
	return func(id int64) error {
		if id == 0 {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
