package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/webmail/internal/export"
	"github.com/nhle/webmail/internal/gateway"
	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	"github.com/nhle/webmail/internal/store"
	"github.com/nhle/webmail/internal/ui"
	"github.com/nhle/webmail/internal/ui/authform"
	"github.com/nhle/webmail/internal/ui/command"
	"github.com/nhle/webmail/internal/ui/compose"
	"github.com/nhle/webmail/internal/ui/confirm"
	"github.com/nhle/webmail/internal/ui/drafts"
	helpview "github.com/nhle/webmail/internal/ui/help"
	"github.com/nhle/webmail/internal/ui/history"
	"github.com/nhle/webmail/internal/ui/mailbox"
	"github.com/nhle/webmail/internal/ui/notice"
	"github.com/nhle/webmail/internal/ui/viewer"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAuth ViewState = iota
	ViewMailbox
	ViewViewer
	ViewCompose
	ViewDrafts
	ViewHistory
	ViewHelp
	ViewCommand
)

// paletteCommands lists the command palette entries.
var paletteCommands = []string{
	"inbox", "outbox", "refresh", "compose", "drafts", "history", "logout", "quit",
}

// Options holds the collaborators of the root model.
type Options struct {
	Thunks     *state.Thunks
	Bridge     *Bridge
	Store      store.Store
	Exporter   *export.Exporter
	Logger     *logrus.Logger
	DateFormat string
}

// Model is the root Bubble Tea model. It routes input between views,
// mirrors the state store, and turns view requests into thunk calls.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	thunks   *state.Thunks
	bridge   *Bridge
	store    store.Store
	exporter *export.Exporter
	log      *logrus.Entry

	stateCh     <-chan state.State
	unsubscribe func()
	st          state.State

	authForm    authform.Model
	mailbox     mailbox.Model
	viewer      viewer.Model
	compose     compose.Model
	draftsView  drafts.Model
	historyView history.Model
	helpView    helpview.Model
	commandView command.Model
	confirm     confirm.Model
	notice      notice.Model
	confirmQ    []confirmRequest

	spinner   spinner.Model
	pending   int
	booting   bool
	statusMsg string
	ready     bool
}

// New creates the root model. It subscribes to the thunks' store at
// once so no update published during startup is missed.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	st := opts.Thunks.Store()
	ch, unsubscribe := st.Subscribe()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		currentView: ViewAuth,
		keys:        k,
		thunks:      opts.Thunks,
		bridge:      opts.Bridge,
		store:       opts.Store,
		exporter:    opts.Exporter,
		log:         logger.WithField("component", "app"),
		stateCh:     ch,
		unsubscribe: unsubscribe,
		st:          st.State(),
		authForm:    authform.New(80, 24),
		mailbox:     mailbox.New(k, opts.DateFormat, 80, 24),
		viewer:      viewer.New(k, opts.DateFormat, 80, 24),
		draftsView:  drafts.New(opts.Store, k, opts.DateFormat, 80, 24),
		historyView: history.New(opts.Store, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(paletteCommands, 80, 24),
		confirm:     confirm.New(80),
		notice:      notice.New(80),
		spinner:     sp,
		booting:     true,
	}
	m.compose = compose.New(searchFunc(opts.Thunks), 80, 24)
	return m
}

// Init starts listening to the store and the bridge, then validates any
// restored session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.stateCh),
		m.bridge.WaitForNotice(),
		m.bridge.WaitForConfirm(),
		m.bootstrap(),
		m.spinner.Tick,
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.authForm.SetSize(w, h)
		m.mailbox.SetSize(w, h)
		m.viewer.SetSize(w, h)
		m.compose.SetSize(w, h)
		m.draftsView.SetSize(w, h)
		m.historyView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.confirm.SetSize(w)
		m.notice.SetSize(w)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		if m.pending == 0 && !m.booting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		cmd := m.applyState(msg.state)
		return m, tea.Batch(cmd, waitForState(m.stateCh))

	case noticeMsg:
		m.notice.Push(msg.notice)
		return m, tea.Batch(m.recordNotice(msg.notice), m.bridge.WaitForNotice())

	case confirmRequestMsg:
		m.confirmQ = append(m.confirmQ, msg.req)
		var cmd tea.Cmd
		if !m.confirm.Active() {
			cmd = m.confirm.Start(msg.req.title, msg.req.text, msg.req.affirmative)
		}
		return m, tea.Batch(cmd, m.bridge.WaitForConfirm())

	case confirm.AnsweredMsg:
		if len(m.confirmQ) == 0 {
			return m, nil
		}
		m.confirmQ[0].reply <- msg.Yes
		m.confirmQ = m.confirmQ[1:]
		if len(m.confirmQ) > 0 {
			next := m.confirmQ[0]
			return m, m.confirm.Start(next.title, next.text, next.affirmative)
		}
		return m, nil

	case notice.DismissedMsg:
		return m, m.markNoticeRead(msg.ID)

	case bootstrapDoneMsg:
		m.booting = false
		cmd := m.applyState(m.thunks.Store().State())
		if m.currentView == ViewAuth {
			return m, tea.Batch(cmd, m.authForm.Start())
		}
		return m, cmd

	case authform.SubmitMsg:
		return m, tea.Batch(m.begin(), m.authenticate(msg))

	case authResultMsg:
		m.done()
		if conflict, ok := gateway.AsConflict(msg.err); ok {
			return m, m.authForm.SetFieldError(conflict.Field, conflict.Message)
		}
		cmd := m.applyState(m.thunks.Store().State())
		if m.currentView == ViewAuth {
			return m, tea.Batch(cmd, m.authForm.Failed())
		}
		return m, cmd

	case requestDoneMsg:
		m.done()
		return m, nil

	case mailbox.OpenMsg:
		m.viewer.SetMessage(msg.Message, msg.Listing)
		m.currentView = ViewViewer
		return m, nil

	case mailbox.DeleteRequestMsg:
		return m, tea.Batch(m.begin(), m.deleteMessage(msg.Message, msg.Listing))

	case viewer.DeleteRequestMsg:
		return m, tea.Batch(m.begin(), m.deleteMessage(msg.Message, msg.Listing))

	case viewer.ExportRequestMsg:
		return m, m.exportMessage(msg.Message)

	case viewer.BackMsg:
		m.viewer.Clear()
		m.currentView = ViewMailbox
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("export failed")
			return m, m.raise(model.NoticeError, "Failed!", fmt.Sprintf("Could not save the message: %v", msg.err))
		}
		m.statusMsg = "Saved to " + msg.path
		return m, nil

	case compose.SendMsg:
		return m, tea.Batch(m.begin(), m.sendMessage(msg.Draft))

	case sentMsg:
		m.done()
		if msg.err != nil {
			if m.currentView == ViewCompose {
				return m, m.compose.StartFromDraft(msg.draft)
			}
			return m, nil
		}
		m.compose.Reset()
		var cmds []tea.Cmd
		if msg.draft.ID != "" {
			cmds = append(cmds, m.discardDraft(msg.draft.ID))
		}
		if m.currentView == ViewCompose {
			m.currentView = ViewMailbox
			cmds = append(cmds, m.mailbox.SetListing(model.ListingOutbox))
		}
		return m, tea.Batch(cmds...)

	case compose.AbortMsg:
		m.currentView = ViewMailbox
		if msg.Draft.IsEmpty() || msg.Draft.SenderID == 0 {
			return m, nil
		}
		return m, m.saveDraft(msg.Draft)

	case draftSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("saving draft")
			m.statusMsg = "Draft could not be saved"
		} else {
			m.statusMsg = "Draft saved"
		}
		return m, nil

	case drafts.ResumeMsg:
		m.currentView = ViewCompose
		return m, m.compose.StartFromDraft(msg.Draft)

	case drafts.CloseMsg, history.CloseMsg:
		m.currentView = ViewMailbox
		return m, nil

	case command.CommandMsg:
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
		}
		return m.executeCommand(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateOverlays(msg)
}

// handleKey routes a key press: overlays first, then global keys, then
// the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.unsubscribe()
		return m, tea.Quit
	}

	if m.confirm.Active() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	if m.notice.Active() {
		var cmd tea.Cmd
		m.notice, cmd = m.notice.Update(msg)
		return m, cmd
	}

	if m.acceptsGlobalKeys() {
		m.statusMsg = ""
		switch {
		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()
		}
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}

	case ViewMailbox:
		if m.mailbox.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.unsubscribe()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(m.begin(), m.fetchMessages())
		case key.Matches(msg, m.keys.Compose):
			return m.openCompose()
		case key.Matches(msg, m.keys.Drafts):
			return m.openDrafts()
		case key.Matches(msg, m.keys.History):
			return m.openHistory()
		case key.Matches(msg, m.keys.Logout):
			return m, m.logout()
		}
	}

	return m.updateActiveView(msg)
}

// updateOverlays delivers non-key messages to the confirm dialog as well
// as the active view, since huh forms drive themselves with internal
// messages.
func (m Model) updateOverlays(msg tea.Msg) (tea.Model, tea.Cmd) {
	var confirmCmd tea.Cmd
	if m.confirm.Active() {
		m.confirm, confirmCmd = m.confirm.Update(msg)
	}
	next, cmd := m.updateActiveView(msg)
	return next, tea.Batch(confirmCmd, cmd)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authForm, cmd = m.authForm.Update(msg)
	case ViewMailbox:
		m.mailbox, cmd = m.mailbox.Update(msg)
	case ViewViewer:
		m.viewer, cmd = m.viewer.Update(msg)
	case ViewCompose:
		m.compose, cmd = m.compose.Update(msg)
	case ViewDrafts:
		m.draftsView, cmd = m.draftsView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// applyState mirrors a store snapshot into the views and follows auth
// transitions.
func (m *Model) applyState(st state.State) tea.Cmd {
	m.st = st
	cmds := []tea.Cmd{m.mailbox.SetState(st)}

	user := state.SelectAuthUser(st)
	switch {
	case user == nil && m.currentView != ViewAuth:
		m.currentView = ViewAuth
		m.viewer.Clear()
		m.compose.Reset()
		if !m.booting {
			cmds = append(cmds, m.authForm.Start())
		}
	case user != nil && m.currentView == ViewAuth:
		m.currentView = ViewMailbox
	}

	// The viewer follows its message out of the listing.
	if msg, listing, ok := m.viewer.Selected(); ok {
		if _, found := state.FindMessage(st, listing, msg.ID); !found {
			m.viewer.Clear()
			if m.currentView == ViewViewer {
				m.currentView = ViewMailbox
			}
		}
	}

	return tea.Batch(cmds...)
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case "inbox":
		m.currentView = ViewMailbox
		return m, m.mailbox.SetListing(model.ListingInbox)
	case "outbox":
		m.currentView = ViewMailbox
		return m, m.mailbox.SetListing(model.ListingOutbox)
	case "refresh", "sync":
		return m, tea.Batch(m.begin(), m.fetchMessages())
	case "compose", "new":
		return m.openCompose()
	case "drafts":
		return m.openDrafts()
	case "history", "notices":
		return m.openHistory()
	case "logout":
		return m, m.logout()
	case "quit", "q":
		m.unsubscribe()
		return m, tea.Quit
	default:
		m.statusMsg = fmt.Sprintf("unknown command %q", c.Name)
		return m, nil
	}
}

func (m Model) openCompose() (tea.Model, tea.Cmd) {
	user := state.SelectAuthUser(m.st)
	if user == nil {
		return m, nil
	}
	m.currentView = ViewCompose
	return m, m.compose.StartNew(*user)
}

func (m Model) openDrafts() (tea.Model, tea.Cmd) {
	user := state.SelectAuthUser(m.st)
	if user == nil {
		return m, nil
	}
	m.currentView = ViewDrafts
	return m, m.draftsView.Open(user.ID)
}

func (m Model) openHistory() (tea.Model, tea.Cmd) {
	m.currentView = ViewHistory
	return m, m.historyView.Open()
}

// raise queues a notice produced by the UI itself.
func (m *Model) raise(level model.NoticeLevel, title, text string) tea.Cmd {
	b := m.bridge
	return func() tea.Msg {
		b.Notify(model.Notification{Level: level, Title: title, Text: text})
		return nil
	}
}

// begin marks a request in flight and starts the spinner if idle.
func (m *Model) begin() tea.Cmd {
	m.pending++
	if m.pending == 1 && !m.booting {
		return m.spinner.Tick
	}
	return nil
}

// done marks a request finished.
func (m *Model) done() {
	if m.pending > 0 {
		m.pending--
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.sessionLabel())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view,
// with any modal placed on top.
func (m Model) renderContent() string {
	switch {
	case m.confirm.Active():
		return m.layout.Center(m.confirm.View())
	case m.notice.Active():
		return m.layout.Center(m.notice.View())
	case m.booting:
		return m.layout.Center(m.spinner.View() + " Checking session...")
	}

	switch m.currentView {
	case ViewAuth:
		return m.authForm.View()
	case ViewMailbox:
		return m.mailbox.View()
	case ViewViewer:
		return m.viewer.View()
	case ViewCompose:
		if !m.compose.Active() {
			return m.layout.Center(m.spinner.View() + " Sending...")
		}
		return m.compose.View()
	case ViewDrafts:
		return m.draftsView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewHelp:
		return m.helpView.View(paletteCommands)
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch {
	case m.confirm.Active():
		return "←/→ choose | enter answer | esc cancel"
	case m.notice.Active():
		return "any key to dismiss"
	}

	switch m.currentView {
	case ViewAuth:
		return "tab next field | enter submit | esc quit"
	case ViewViewer:
		return "esc back | d delete | s save .eml | j/k scroll"
	case ViewCompose:
		return "tab next field | enter submit | esc save draft"
	case ViewDrafts:
		return "enter resume | d discard | esc back"
	case ViewHistory:
		return "e failures only | x clear | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	default:
		return "q quit | ? help | c compose | tab listing | / search | r refresh"
	}
}

// Close releases the store subscription.
func (m Model) Close() {
	m.unsubscribe()
}
