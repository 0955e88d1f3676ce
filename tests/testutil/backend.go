package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nhle/webmail/internal/model"
)

const sessionCookie = "session"

// listingKey identifies one listing of a message for one user.
type listingKey struct {
	userID    int64
	messageID int64
	listing   model.ListingType
}

// fakeUser is a registered account with its password.
type fakeUser struct {
	user     model.User
	password string
}

// FakeBackend is an in-memory stand-in for the mail API. It follows the
// status contract of the real backend: 401 on a missing session, 401 on
// bad credentials, 403 on a taken username, 404 for unknown listings.
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[int64]fakeUser
	messages  map[int64]model.Message
	listings  map[listingKey]bool
	order     []int64
	sessions  map[string]int64
	failures  map[string]int
	requests  []string
	nextUser  int64
	nextMsgID int64
}

// NewFakeBackend starts a fake backend that is shut down when the test
// completes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		users:    make(map[int64]fakeUser),
		messages: make(map[int64]model.Message),
		listings: make(map[listingKey]bool),
		sessions: make(map[string]int64),
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/", b.handleVerify)
		r.Post("/login", b.handleLogin)
		r.Post("/register", b.handleRegister)
		r.Post("/logout", b.handleLogout)
	})
	r.Route("/api/resources", func(r chi.Router) {
		r.Get("/messages", b.handleListMessages)
		r.Post("/messages", b.handleCreateMessage)
		r.Delete("/messages/{id}", b.handleDeleteMessage)
		r.Get("/users", b.handleSearchUsers)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)

	return b
}

// URL returns the base URL of the fake backend.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddUser registers an account directly.
func (b *FakeBackend) AddUser(username, password string) model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, password)
}

func (b *FakeBackend) addUserLocked(username, password string) model.User {
	b.nextUser++
	u := model.User{ID: b.nextUser, Username: username}
	b.users[u.ID] = fakeUser{user: u, password: password}
	return u
}

// Deliver stores a message from one user to another, listing it in the
// sender's outbox and the receiver's inbox.
func (b *FakeBackend) Deliver(from, to model.User, subject, body string) model.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deliverLocked(from, to, subject, body)
}

func (b *FakeBackend) deliverLocked(from, to model.User, subject, body string) model.Message {
	b.nextMsgID++
	msg := model.Message{
		ID:        b.nextMsgID,
		Subject:   subject,
		Message:   body,
		Sender:    from,
		Receiver:  to,
		CreatedAt: model.Timestamp{Time: time.Now().UTC().Truncate(time.Microsecond)},
	}
	b.messages[msg.ID] = msg
	b.order = append(b.order, msg.ID)
	b.listings[listingKey{to.ID, msg.ID, model.ListingInbox}] = true
	b.listings[listingKey{from.ID, msg.ID, model.ListingOutbox}] = true
	return msg
}

// FailNext makes the next request matching method and path answer with
// status instead of being handled.
func (b *FakeBackend) FailNext(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

// RequestCount returns how many requests matched method and path.
func (b *FakeBackend) RequestCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, r := range b.requests {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

// HasListing reports whether the message is still listed for the user.
func (b *FakeBackend) HasListing(userID, messageID int64, listing model.ListingType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listings[listingKey{userID, messageID, listing}]
}

// record logs every request and applies injected failures.
func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimRight(r.URL.Path, "/")

		b.mu.Lock()
		b.requests = append(b.requests, key)
		status, fail := b.failures[key]
		if fail {
			delete(b.failures, key)
		}
		b.mu.Unlock()

		if fail {
			abort(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser resolves the session cookie; the caller must hold b.mu.
func (b *FakeBackend) currentUser(r *http.Request) (model.User, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return model.User{}, false
	}
	id, ok := b.sessions[c.Value]
	if !ok {
		return model.User{}, false
	}
	return b.users[id].user, true
}

func (b *FakeBackend) login(w http.ResponseWriter, u model.User) {
	token := uuid.New().String()
	b.sessions[token] = u.ID
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (b *FakeBackend) handleVerify(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.currentUser(r)
	if !ok {
		abort(w, http.StatusUnauthorized, "")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		abort(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, fu := range b.users {
		if fu.user.Username == creds.Username {
			if fu.password != creds.Password {
				break
			}
			b.login(w, fu.user)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	abort(w, http.StatusUnauthorized, "")
}

func (b *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		abort(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(creds.Password) < 6 || len(creds.Username) < 2 {
		abort(w, http.StatusBadRequest, "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, fu := range b.users {
		if fu.user.Username == creds.Username {
			abort(w, http.StatusForbidden, "Username already taken")
			return
		}
	}

	u := b.addUserLocked(creds.Username, creds.Password)
	b.login(w, u)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := r.Cookie(sessionCookie)
	if err != nil || b.sessions[c.Value] == 0 {
		abort(w, http.StatusBadRequest, "")
		return
	}
	delete(b.sessions, c.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) handleListMessages(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.currentUser(r)
	if !ok {
		abort(w, http.StatusNotFound, "")
		return
	}

	box := model.Mailbox{Inbox: []model.Message{}, Outbox: []model.Message{}}
	for _, id := range b.order {
		if b.listings[listingKey{u.ID, id, model.ListingInbox}] {
			box.Inbox = append(box.Inbox, b.messages[id])
		}
		if b.listings[listingKey{u.ID, id, model.ListingOutbox}] {
			box.Outbox = append(box.Outbox, b.messages[id])
		}
	}
	writeJSON(w, http.StatusOK, box)
}

func (b *FakeBackend) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req model.ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		abort(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if u, ok := b.currentUser(r); ok {
		req.SenderID = u.ID
	}
	switch {
	case req.Subject == "":
		abort(w, http.StatusBadRequest, "Missing subject")
		return
	case req.Message == "":
		abort(w, http.StatusBadRequest, "Missing message")
		return
	}
	sender, ok := b.users[req.SenderID]
	if !ok {
		abort(w, http.StatusBadRequest, "Sending user does not exist or wasn't selected")
		return
	}
	receiver, ok := b.users[req.ReceiverID]
	if !ok {
		abort(w, http.StatusBadRequest, "Receiving user does not exist or wasn't selected")
		return
	}

	msg := b.deliverLocked(sender.user, receiver.user, req.Subject, req.Message)
	writeJSON(w, http.StatusOK, wireMessage(msg))
}

func (b *FakeBackend) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		abort(w, http.StatusNotFound, "")
		return
	}
	listing := model.ListingType(r.URL.Query().Get("listing_type"))
	if listing == "" {
		abort(w, http.StatusBadRequest, "The message listing type must be specified")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, _ := b.currentUser(r)
	key := listingKey{u.ID, id, listing}
	if !b.listings[key] {
		abort(w, http.StatusNotFound, "")
		return
	}
	delete(b.listings, key)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		abort(w, http.StatusBadRequest, "A search parameter must be specified")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	found := []model.User{}
	for id := int64(1); id <= b.nextUser; id++ {
		fu, ok := b.users[id]
		if ok && strings.Contains(fu.user.Username, q) {
			found = append(found, fu.user)
		}
	}
	writeJSON(w, http.StatusOK, found)
}

// wireMessage renders createdAt the way the backend does, with a space
// separator and microseconds.
func wireMessage(m model.Message) map[string]interface{} {
	return map[string]interface{}{
		"id":        m.ID,
		"subject":   m.Subject,
		"message":   m.Message,
		"sender":    m.Sender,
		"receiver":  m.Receiver,
		"createdAt": m.CreatedAt.Format("2006-01-02 15:04:05.000000"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func abort(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"message": message})
}
