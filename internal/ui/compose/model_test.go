package compose

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
)

type searchRecorder struct {
	mu      sync.Mutex
	queries []string
	users   []model.User
}

func (s *searchRecorder) search(q string) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.users
}

func TestStartNew_PrefillsSender(t *testing.T) {
	m := New(nil, 80, 24)
	m.StartNew(model.User{ID: 1, Username: "alice"})

	require.True(t, m.Active())
	d := m.Draft()
	assert.Equal(t, int64(1), d.SenderID)
	assert.Equal(t, "alice", d.SenderName)
	assert.True(t, d.IsEmpty())
}

func TestStartFromDraft_RoundTrip(t *testing.T) {
	m := New(nil, 80, 24)
	in := model.Draft{
		ID: "d1", SenderID: 1, SenderName: "alice",
		ReceiverID: 2, ReceiverName: "bob",
		Subject: "Hi", Body: "there",
	}
	m.StartFromDraft(in)

	out := m.Draft()
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.ReceiverName, out.ReceiverName)
	assert.Equal(t, in.Request(), out.Request())
	assert.Contains(t, m.View(), "Draft")
}

func TestUserOptions_SearchesAndKeepsSelection(t *testing.T) {
	rec := &searchRecorder{users: []model.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "bobby"}}}
	m := New(rec.search, 80, 24)
	m.StartFromDraft(model.Draft{SenderID: 1, SenderName: "alice", ReceiverID: 9, ReceiverName: "zed"})

	m.fb.receiverQuery = "bob"
	opts := m.userOptions(&m.fb.receiverQuery, &m.fb.receiverID)()

	require.Len(t, opts, 3)
	assert.Equal(t, int64(9), opts[0].Value)
	assert.Equal(t, int64(2), opts[1].Value)
	assert.Equal(t, int64(3), opts[2].Value)
	assert.Equal(t, []string{"bob"}, rec.queries)
	assert.Equal(t, "bobby", m.fb.name(3))
}

func TestUserOptions_EmptyQuerySkipsSearch(t *testing.T) {
	rec := &searchRecorder{}
	m := New(rec.search, 80, 24)
	m.StartFromDraft(model.Draft{})

	opts := m.userOptions(&m.fb.receiverQuery, &m.fb.receiverID)()

	require.Len(t, opts, 1)
	assert.Equal(t, int64(0), opts[0].Value)
	assert.Empty(t, rec.queries)
}

func TestValidators(t *testing.T) {
	assert.Error(t, validateUser("Receiver")(0))
	assert.NoError(t, validateUser("Receiver")(4))
	assert.Error(t, validateRequired("Subject")("  "))
	assert.NoError(t, validateRequired("Subject")("x"))
}
