package app

import (
	"fmt"

	"github.com/nhle/webmail/internal/state"
)

// acceptsGlobalKeys reports whether single-letter global shortcuts may be
// intercepted. Views with text input own every key.
func (m Model) acceptsGlobalKeys() bool {
	switch m.currentView {
	case ViewAuth, ViewCompose, ViewCommand:
		return false
	case ViewMailbox:
		return !m.mailbox.Filtering()
	default:
		return true
	}
}

// headerTitle shows the application name and the listing sizes.
func (m Model) headerTitle() string {
	if state.SelectAuthUser(m.st) == nil {
		return "Webmail"
	}
	return fmt.Sprintf("Webmail [%d in inbox, %d sent]",
		len(state.SelectInbox(m.st)), len(state.SelectOutbox(m.st)))
}

// sessionLabel summarizes who is logged in and whether requests are in
// flight.
func (m Model) sessionLabel() string {
	label := "not signed in"
	if user := state.SelectAuthUser(m.st); user != nil {
		label = user.Username
	}
	if m.pending > 0 || m.booting {
		label = m.spinner.View() + " " + label
	}
	return label
}
