package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	"github.com/nhle/webmail/internal/ui/authform"
	"github.com/nhle/webmail/internal/ui/compose"
)

// searchTimeout bounds a single autocomplete lookup.
const searchTimeout = 5 * time.Second

// stateMsg carries a store snapshot to the UI.
type stateMsg struct {
	state state.State
}

// bootstrapDoneMsg is sent once the startup session check finished.
type bootstrapDoneMsg struct{ err error }

// authResultMsg is sent after a login or register attempt.
type authResultMsg struct{ err error }

// sentMsg is sent after a compose submission.
type sentMsg struct {
	draft model.Draft
	err   error
}

// requestDoneMsg is sent after a request with no result of interest.
type requestDoneMsg struct{ err error }

// draftSavedMsg is sent after an aborted compose form was stored.
type draftSavedMsg struct{ err error }

// exportDoneMsg is sent after a message was written to disk.
type exportDoneMsg struct {
	path string
	err  error
}

// waitForState returns a tea.Cmd that blocks until the store publishes.
func waitForState(ch <-chan state.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: st}
	}
}

// bootstrap validates a restored session.
func (m *Model) bootstrap() tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		return bootstrapDoneMsg{err: t.FetchValidatedUser(context.Background())}
	}
}

// authenticate submits credentials to the login or register endpoint.
func (m *Model) authenticate(msg authform.SubmitMsg) tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		ctx := context.Background()
		if msg.Mode == authform.ModeRegister {
			return authResultMsg{err: t.Register(ctx, msg.Credentials)}
		}
		return authResultMsg{err: t.Login(ctx, msg.Credentials)}
	}
}

// logout forgets the user locally; the backend call runs detached.
func (m *Model) logout() tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		t.LogoutUser(context.Background())
		return nil
	}
}

// fetchMessages reloads both listings.
func (m *Model) fetchMessages() tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		return requestDoneMsg{err: t.FetchMessages(context.Background())}
	}
}

// deleteMessage asks for confirmation and deletes msg from listing.
func (m *Model) deleteMessage(msg model.Message, listing model.ListingType) tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		return requestDoneMsg{err: t.DeleteMessage(context.Background(), msg, listing)}
	}
}

// sendMessage submits the compose form.
func (m *Model) sendMessage(d model.Draft) tea.Cmd {
	t := m.thunks
	return func() tea.Msg {
		_, err := t.SendMessage(context.Background(), d.Request())
		return sentMsg{draft: d, err: err}
	}
}

// searchFunc backs the compose autocomplete.
func searchFunc(t *state.Thunks) compose.SearchFunc {
	return func(query string) []model.User {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		return t.SearchUsers(ctx, query)
	}
}

// saveDraft stores an unsent compose form.
func (m *Model) saveDraft(d model.Draft) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.SaveDraft(context.Background(), d)
		return draftSavedMsg{err: err}
	}
}

// discardDraft removes a draft that has been sent.
func (m *Model) discardDraft(id string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		if err := s.DeleteDraft(context.Background(), id); err != nil {
			log.WithError(err).WithField("draft", id).Warn("discarding sent draft")
		}
		return nil
	}
}

// recordNotice appends n to the notice history.
func (m *Model) recordNotice(n model.Notification) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		if _, err := s.CreateNotification(context.Background(), n); err != nil {
			log.WithError(err).Warn("recording notice")
		}
		return nil
	}
}

// markNoticeRead flags a dismissed notice in the history.
func (m *Model) markNoticeRead(id string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		if err := s.MarkNotificationRead(context.Background(), id); err != nil {
			log.WithError(err).WithField("notice", id).Debug("marking notice read")
		}
		return nil
	}
}

// exportMessage writes msg as an .eml file.
func (m *Model) exportMessage(msg model.Message) tea.Cmd {
	e := m.exporter
	return func() tea.Msg {
		if e == nil {
			return exportDoneMsg{err: errors.New("export is not configured")}
		}
		path, err := e.Export(msg)
		return exportDoneMsg{path: path, err: err}
	}
}
