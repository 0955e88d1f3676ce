package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/gateway"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/tests/testutil"
)

// memorySessions is a SessionStore kept in memory.
type memorySessions struct {
	mu      sync.Mutex
	cookies map[string][]*http.Cookie
	clears  int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{cookies: make(map[string][]*http.Cookie)}
}

func (m *memorySessions) Load(baseURL string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[baseURL], nil
}

func (m *memorySessions) Save(baseURL string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[baseURL] = cookies
	return nil
}

func (m *memorySessions) Clear(baseURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, baseURL)
	m.clears++
	return nil
}

func newClient(t *testing.T, b *testutil.FakeBackend, opts ...gateway.Option) *gateway.Client {
	t.Helper()
	c, err := gateway.NewClient(b.URL(), 5*time.Second, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := gateway.NewClient("/api", time.Second)
	assert.Error(t, err)
}

func TestValidateSession_Unauthenticated(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	c := newClient(t, b)

	user, err := c.ValidateSession(context.Background())
	assert.Nil(t, user)
	assert.True(t, gateway.IsUnauthenticated(err))
}

func TestLogin_ThenValidateSession(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	alice := b.AddUser("alice", "secret1")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	user, err := c.ValidateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, *user)
}

func TestLogin_WrongPasswordIsConflict(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	c := newClient(t, b)

	err := c.Login(context.Background(), model.Credentials{Username: "alice", Password: "nope"})
	conflict, ok := gateway.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, "username", conflict.Field)
	assert.Equal(t, http.StatusUnauthorized, conflict.Status)
}

func TestRegister_TakenUsernameIsConflict(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	c := newClient(t, b)

	err := c.Register(context.Background(), model.Credentials{Username: "alice", Password: "secret2"})
	conflict, ok := gateway.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, conflict.Status)
}

func TestRegister_LogsIn(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, model.Credentials{Username: "carol", Password: "secret1"}))

	user, err := c.ValidateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
}

func TestLogout_EndsSession(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	sessions := newMemorySessions()
	c := newClient(t, b, gateway.WithSessionStore(sessions))
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))
	require.NoError(t, c.Logout(ctx))

	_, err := c.ValidateSession(ctx)
	assert.True(t, gateway.IsUnauthenticated(err))
	assert.Equal(t, 1, sessions.clears)
}

func TestLogout_SlowResponseKeepsNewerLogin(t *testing.T) {
	logoutSeen := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "fresh", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		close(logoutSeen)
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sessions := newMemorySessions()
	c, err := gateway.NewClient(srv.URL, 5*time.Second, gateway.WithSessionStore(sessions))
	require.NoError(t, err)
	ctx := context.Background()
	creds := model.Credentials{Username: "alice", Password: "secret1"}

	require.NoError(t, c.Login(ctx, creds))

	done := make(chan error, 1)
	go func() { done <- c.Logout(ctx) }()
	<-logoutSeen

	require.NoError(t, c.Login(ctx, creds))
	close(release)
	require.NoError(t, <-done)

	cookies, err := sessions.Load(c.BaseURL())
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "fresh", cookies[0].Value)
}

func TestRestoreSession_ReusesPersistedCookie(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	sessions := newMemorySessions()
	ctx := context.Background()

	first := newClient(t, b, gateway.WithSessionStore(sessions))
	require.NoError(t, first.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	second := newClient(t, b, gateway.WithSessionStore(sessions))
	require.NoError(t, second.RestoreSession())

	user, err := second.ValidateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestFetchMessages(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	alice := b.AddUser("alice", "secret1")
	bob := b.AddUser("bob", "secret1")
	in := b.Deliver(bob, alice, "Hello", "from bob")
	out := b.Deliver(alice, bob, "Re: Hello", "from alice")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	box, err := c.FetchMessages(ctx)
	require.NoError(t, err)
	require.Len(t, box.Inbox, 1)
	require.Len(t, box.Outbox, 1)
	assert.Equal(t, in.ID, box.Inbox[0].ID)
	assert.Equal(t, bob, box.Inbox[0].Sender)
	assert.Equal(t, out.ID, box.Outbox[0].ID)
	assert.Equal(t, "Re: Hello", box.Outbox[0].Subject)
	assert.True(t, in.CreatedAt.Equal(box.Inbox[0].CreatedAt.Time))
}

func TestFetchMessages_EmptyMailboxHasNonNilSlices(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	box, err := c.FetchMessages(ctx)
	require.NoError(t, err)
	assert.NotNil(t, box.Inbox)
	assert.NotNil(t, box.Outbox)
}

func TestFetchMessages_TransportErrorCarriesStatusAndMessage(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.FailNext(http.MethodGet, "/api/resources/messages", http.StatusInternalServerError)
	c := newClient(t, b)

	_, err := c.FetchMessages(context.Background())
	var transport *gateway.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusInternalServerError, transport.Status)
	assert.Equal(t, "forced failure", transport.Message)
}

func TestFetchMessages_NetworkFailureHasNoStatus(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	c := newClient(t, b)
	b.Server.Close()

	_, err := c.FetchMessages(context.Background())
	var transport *gateway.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Zero(t, transport.Status)
	assert.Error(t, transport.Err)
}

func TestSendMessage_ParsesBackendTimestamp(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	alice := b.AddUser("alice", "secret1")
	bob := b.AddUser("bob", "secret1")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	msg, err := c.SendMessage(ctx, model.ComposeRequest{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
		Subject:    "Lunch",
		Message:    "Noon?",
	})
	require.NoError(t, err)
	assert.Equal(t, alice, msg.Sender)
	assert.Equal(t, bob, msg.Receiver)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.True(t, b.HasListing(bob.ID, msg.ID, model.ListingInbox))
}

func TestSendMessage_ValidationFailure(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	alice := b.AddUser("alice", "secret1")
	c := newClient(t, b)

	_, err := c.SendMessage(context.Background(), model.ComposeRequest{
		SenderID:   alice.ID,
		ReceiverID: 99,
		Subject:    "Lunch",
		Message:    "Noon?",
	})
	var transport *gateway.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusBadRequest, transport.Status)
	assert.Contains(t, transport.Message, "Receiving user")
}

func TestDeleteMessage_SendsListingType(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	alice := b.AddUser("alice", "secret1")
	bob := b.AddUser("bob", "secret1")
	msg := b.Deliver(bob, alice, "Hello", "from bob")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))
	require.NoError(t, c.DeleteMessage(ctx, msg.ID, model.ListingInbox))

	assert.False(t, b.HasListing(alice.ID, msg.ID, model.ListingInbox))
	assert.True(t, b.HasListing(bob.ID, msg.ID, model.ListingOutbox))
}

func TestDeleteMessage_UnknownIsNotFound(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	c := newClient(t, b)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, model.Credentials{Username: "alice", Password: "secret1"}))

	err := c.DeleteMessage(ctx, 42, model.ListingOutbox)
	var transport *gateway.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusNotFound, transport.Status)
}

func TestDeleteMessage_InvalidListingNeverHitsBackend(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	c := newClient(t, b)

	err := c.DeleteMessage(context.Background(), 1, model.ListingType("trash"))
	assert.Error(t, err)
	assert.Zero(t, b.RequestCount(http.MethodDelete, "/api/resources/messages/1"))
}

func TestSearchUsers(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	b.AddUser("alicia", "secret1")
	b.AddUser("bob", "secret1")
	c := newClient(t, b, gateway.WithSearchRate(0))

	users, err := c.SearchUsers(context.Background(), "ali")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alicia", users[1].Username)

	_, err = c.SearchUsers(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSearchUsers_RateLimitHonoursContext(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	b.AddUser("alice", "secret1")
	c := newClient(t, b, gateway.WithSearchRate(0.01))

	_, err := c.SearchUsers(context.Background(), "ali")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.SearchUsers(ctx, "ali")
	assert.Error(t, err)
	assert.Equal(t, 1, b.RequestCount(http.MethodGet, "/api/resources/users"))
}

func TestWithRoutes(t *testing.T) {
	b := testutil.NewFakeBackend(t)
	c := newClient(t, b, gateway.WithRoutes(gateway.Routes{Auth: "/api/auth/"}))

	_, err := c.ValidateSession(context.Background())
	assert.True(t, gateway.IsUnauthenticated(err))
	assert.Equal(t, 1, b.RequestCount(http.MethodGet, "/api/auth"))
}
