package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/webmail/internal/gateway"
	"github.com/nhle/webmail/internal/model"
)

// logoutTimeout bounds the detached logout request.
const logoutTimeout = 10 * time.Second

// Notice titles.
const (
	titleFailed  = "Failed!"
	titleSuccess = "Success!"
	titleDeleted = "Deleted!"
)

// Gateway is the subset of the backend client the thunks use.
type Gateway interface {
	ValidateSession(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, creds model.Credentials) error
	Register(ctx context.Context, creds model.Credentials) error
	Logout(ctx context.Context) error
	FetchMessages(ctx context.Context) (*model.Mailbox, error)
	SendMessage(ctx context.Context, req model.ComposeRequest) (*model.Message, error)
	DeleteMessage(ctx context.Context, id int64, listing model.ListingType) error
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
}

// Notifier shows a notice to the user.
type Notifier interface {
	Notify(n model.Notification)
}

// Confirmer asks the user a yes/no question and blocks until answered.
// affirmative labels the yes choice. A cancelled context counts as a
// refusal.
type Confirmer interface {
	Confirm(ctx context.Context, title, text, affirmative string) bool
}

// Thunks are the asynchronous actions of the client. Each one performs
// its I/O and then dispatches pure actions to the store. Network
// failures never reach the reducers.
type Thunks struct {
	store   *Store
	gw      Gateway
	notify  Notifier
	confirm Confirmer
	log     *logrus.Entry
}

// NewThunks wires the actions to a store and a backend. A nil logger
// discards output.
func NewThunks(store *Store, gw Gateway, notify Notifier, confirm Confirmer, log *logrus.Logger) *Thunks {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Thunks{
		store:   store,
		gw:      gw,
		notify:  notify,
		confirm: confirm,
		log:     log.WithField("component", "state"),
	}
}

// Store returns the store the thunks dispatch to.
func (t *Thunks) Store() *Store {
	return t.store
}

// FetchValidatedUser checks the session. A valid session sets the user
// and loads the mail. No session is the normal logged-out case and is
// not reported.
func (t *Thunks) FetchValidatedUser(ctx context.Context) error {
	user, err := t.gw.ValidateSession(ctx)
	if err != nil {
		if gateway.IsUnauthenticated(err) {
			t.log.Debug("no active session")
			return nil
		}
		t.fail("There was a problem with the user verification process.", err)
		return fmt.Errorf("validating session: %w", err)
	}

	t.store.Dispatch(Validate{User: *user})
	t.log.WithField("user", user.Username).Info("session validated")

	return t.FetchMessages(ctx)
}

// LogoutUser forgets the user at once and tells the backend in the
// background. The outcome of the request is only logged.
func (t *Thunks) LogoutUser(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		if err := t.gw.Logout(ctx); err != nil {
			t.log.WithError(err).Warn("logout request failed")
		}
	}()

	t.store.Dispatch(Invalidate{})
	t.ClearMessages()
}

// Login opens a session and bootstraps it. Rejected credentials come
// back as a *gateway.ConflictError without a notice.
func (t *Thunks) Login(ctx context.Context, creds model.Credentials) error {
	return t.authenticate(ctx, creds, t.gw.Login)
}

// Register creates an account, which also logs it in.
func (t *Thunks) Register(ctx context.Context, creds model.Credentials) error {
	return t.authenticate(ctx, creds, t.gw.Register)
}

func (t *Thunks) authenticate(
	ctx context.Context,
	creds model.Credentials,
	submit func(context.Context, model.Credentials) error,
) error {
	if err := submit(ctx, creds); err != nil {
		if _, ok := gateway.AsConflict(err); ok {
			return err
		}
		t.fail("There was problem with the authentication process.", err)
		return fmt.Errorf("authenticating %s: %w", creds.Username, err)
	}
	return t.FetchValidatedUser(ctx)
}

// FetchMessages replaces both listings with the backend's. Overlapping
// calls are not ordered: the last response to arrive wins.
func (t *Thunks) FetchMessages(ctx context.Context) error {
	box, err := t.gw.FetchMessages(ctx)
	if err != nil {
		t.fail("There was a problem with fetching the messages from the server.", err)
		return fmt.Errorf("fetching messages: %w", err)
	}

	t.store.Dispatch(Set{Inbox: box.Inbox, Outbox: box.Outbox})
	t.log.WithFields(logrus.Fields{
		"inbox":  len(box.Inbox),
		"outbox": len(box.Outbox),
	}).Debug("messages loaded")
	return nil
}

// DeleteMessage asks for confirmation and then deletes the message from
// one listing. Declining does nothing and returns nil.
func (t *Thunks) DeleteMessage(ctx context.Context, msg model.Message, listing model.ListingType) error {
	if !t.confirm.Confirm(ctx, "Are you sure?", "You won't be able to revert this!", "Yes, delete it!") {
		t.log.WithField("id", msg.ID).Debug("delete declined")
		return nil
	}

	if err := t.gw.DeleteMessage(ctx, msg.ID, listing); err != nil {
		t.fail("There has been a problem deleting your message.", err)
		return fmt.Errorf("deleting message %d: %w", msg.ID, err)
	}

	t.store.Dispatch(Remove{Message: msg, Listing: listing})
	t.notify.Notify(model.Notification{
		Level: model.NoticeSuccess,
		Title: titleDeleted,
		Text:  "Your message has been deleted successfully.",
	})
	return nil
}

// ClearMessages empties both listings.
func (t *Thunks) ClearMessages() {
	t.store.Dispatch(Set{Inbox: []model.Message{}, Outbox: []model.Message{}})
}

// SendMessage submits a message and appends the stored copy to the
// outbox.
func (t *Thunks) SendMessage(ctx context.Context, req model.ComposeRequest) (*model.Message, error) {
	msg, err := t.gw.SendMessage(ctx, req)
	if err != nil {
		t.fail("There was a problem with sending the message to the server.", err)
		return nil, fmt.Errorf("sending message: %w", err)
	}

	t.store.Dispatch(Add{Message: *msg, Listing: model.ListingOutbox})
	t.notify.Notify(model.Notification{
		Level: model.NoticeSuccess,
		Title: titleSuccess,
		Text:  "The message was sent successfully.",
	})
	return msg, nil
}

// SearchUsers looks up users for the compose autocomplete. Failures
// are reported and yield no users.
func (t *Thunks) SearchUsers(ctx context.Context, query string) []model.User {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	users, err := t.gw.SearchUsers(ctx, query)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		t.fail("There was a problem with fetching the list of users", err)
		return nil
	}
	return users
}

// fail logs err and shows an error notice. The backend's own reason is
// appended when it sent one.
func (t *Thunks) fail(text string, err error) {
	t.log.WithError(err).Warn(text)

	var transport *gateway.TransportError
	if errors.As(err, &transport) && transport.Message != "" {
		text = fmt.Sprintf("%s (%s)", text, transport.Message)
	}
	t.notify.Notify(model.Notification{
		Level: model.NoticeError,
		Title: titleFailed,
		Text:  text,
	})
}
