package authform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// Mode selects which endpoint the credentials go to.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// Field length limits enforced by the backend on registration.
const (
	minUsername = 2
	minPassword = 6
)

// SubmitMsg is dispatched when the user submits credentials.
type SubmitMsg struct {
	Mode        Mode
	Credentials model.Credentials
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	mode     Mode
	username string
	password string
}

// Model is the login/register form shown while nobody is logged in.
type Model struct {
	form          *huh.Form
	fb            *formBindings
	usernameError string
	submitting    bool
	width         int
	height        int
}

// New creates a new auth form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: ModeLogin},
		width:  width,
		height: height,
	}
}

// Start opens the form, keeping the last username and mode.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.submitting = false
	m.form = m.buildForm()
	return m.form.Init()
}

// SetFieldError reopens the form with message shown on the named field.
// Only the username field carries errors.
func (m *Model) SetFieldError(field, message string) tea.Cmd {
	if field == "username" {
		m.usernameError = message
	}
	return m.Start()
}

// Failed reopens the form after a non-field failure.
func (m *Model) Failed() tea.Cmd {
	return m.Start()
}

// Submitting reports whether credentials are in flight.
func (m Model) Submitting() bool {
	return m.submitting
}

// Update handles messages for the auth form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitting = true
		m.usernameError = ""
		submit := SubmitMsg{
			Mode: m.fb.mode,
			Credentials: model.Credentials{
				Username: strings.TrimSpace(m.fb.username),
				Password: m.fb.password,
			},
		}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the auth form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := theme.TitleStyle.Render("Welcome to Webmail")
	if m.submitting {
		wait := theme.DimmedStyle.Render("Signing in...")
		return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + wait)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	username := huh.NewInput().
		Title("Username").
		Value(&m.fb.username).
		Validate(validateMinLength("Username", minUsername))
	if m.usernameError != "" {
		username = username.Description(theme.ErrorTextStyle.Render(m.usernameError))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Mode]().
				Title("Action").
				Options(
					huh.NewOption("Log in", ModeLogin),
					huh.NewOption("Register", ModeRegister),
				).
				Value(&m.fb.mode),
			username,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateMinLength("Password", minPassword)),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}

func validateMinLength(fieldName string, n int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		if len([]rune(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", fieldName, n)
		}
		return nil
	}
}
