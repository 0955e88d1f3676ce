package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
)

func TestStore_DispatchAndState(t *testing.T) {
	s := NewStore()
	assert.Nil(t, SelectAuthUser(s.State()))

	s.Dispatch(Validate{User: model.User{ID: 1, Username: "alice"}}, Add{Message: msg(1), Listing: model.ListingInbox})

	st := s.State()
	require.NotNil(t, SelectAuthUser(st))
	assert.Equal(t, "alice", SelectAuthUser(st).Username)
	assert.Len(t, SelectInbox(st), 1)
}

func TestStore_SubscribeReceivesLatest(t *testing.T) {
	s := NewStore()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Dispatch(Add{Message: msg(1), Listing: model.ListingInbox})
	s.Dispatch(Add{Message: msg(2), Listing: model.ListingInbox})

	select {
	case st := <-ch:
		assert.Equal(t, []int64{1, 2}, ids(SelectInbox(st)))
	case <-time.After(time.Second):
		t.Fatal("no state published")
	}

	select {
	case <-ch:
		t.Fatal("stale state left in channel")
	default:
	}
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewStore()
	ch, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	s.Dispatch(Invalidate{})

	select {
	case <-ch:
		t.Fatal("state published after unsubscribe")
	default:
	}
}
