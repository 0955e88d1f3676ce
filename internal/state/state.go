package state

import "github.com/nhle/webmail/internal/model"

// AuthState holds the authenticated user. A nil User means nobody is
// logged in.
type AuthState struct {
	User *model.User
}

// MessagesState holds both listings in the order the backend returned
// them.
type MessagesState struct {
	Inbox  []model.Message
	Outbox []model.Message
}

// State is the whole client state.
type State struct {
	Auth     AuthState
	Messages MessagesState
}

// Initial returns the empty, unauthenticated state.
func Initial() State {
	return State{
		Messages: MessagesState{
			Inbox:  []model.Message{},
			Outbox: []model.Message{},
		},
	}
}

// Action is a pure state mutation. Only the types in this package
// implement it.
type Action interface {
	action()
}

// Validate sets the authenticated user.
type Validate struct {
	User model.User
}

// Invalidate forgets the authenticated user.
type Invalidate struct{}

// Set replaces both listings.
type Set struct {
	Inbox  []model.Message
	Outbox []model.Message
}

// Add appends a message to one listing.
type Add struct {
	Message model.Message
	Listing model.ListingType
}

// Remove drops every message with the same id from one listing.
type Remove struct {
	Message model.Message
	Listing model.ListingType
}

func (Validate) action()   {}
func (Invalidate) action() {}
func (Set) action()        {}
func (Add) action()        {}
func (Remove) action()     {}

// Reduce applies a to s and returns the new state. s is never modified.
func Reduce(s State, a Action) State {
	s.Auth = reduceAuth(s.Auth, a)
	s.Messages = reduceMessages(s.Messages, a)
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case Validate:
		u := a.User
		return AuthState{User: &u}
	case Invalidate:
		return AuthState{}
	default:
		return s
	}
}

func reduceMessages(s MessagesState, a Action) MessagesState {
	switch a := a.(type) {
	case Set:
		return MessagesState{
			Inbox:  clone(a.Inbox),
			Outbox: clone(a.Outbox),
		}
	case Add:
		switch a.Listing {
		case model.ListingInbox:
			s.Inbox = AddMessage(s.Inbox, a.Message)
		case model.ListingOutbox:
			s.Outbox = AddMessage(s.Outbox, a.Message)
		}
		return s
	case Remove:
		switch a.Listing {
		case model.ListingInbox:
			s.Inbox = RemoveMessage(s.Inbox, a.Message)
		case model.ListingOutbox:
			s.Outbox = RemoveMessage(s.Outbox, a.Message)
		}
		return s
	default:
		return s
	}
}

// AddMessage returns a new collection with m appended. Duplicate ids are
// allowed.
func AddMessage(c []model.Message, m model.Message) []model.Message {
	out := make([]model.Message, 0, len(c)+1)
	out = append(out, c...)
	return append(out, m)
}

// RemoveMessage returns a new collection without any message whose id
// equals m.ID.
func RemoveMessage(c []model.Message, m model.Message) []model.Message {
	out := make([]model.Message, 0, len(c))
	for _, existing := range c {
		if existing.ID != m.ID {
			out = append(out, existing)
		}
	}
	return out
}

func clone(c []model.Message) []model.Message {
	out := make([]model.Message, len(c))
	copy(out, c)
	return out
}

// SelectAuthUser returns the authenticated user or nil.
func SelectAuthUser(s State) *model.User {
	return s.Auth.User
}

// SelectInbox returns the inbox listing.
func SelectInbox(s State) []model.Message {
	return s.Messages.Inbox
}

// SelectOutbox returns the outbox listing.
func SelectOutbox(s State) []model.Message {
	return s.Messages.Outbox
}

// SelectListing returns the listing named by l, or nil for an unknown
// listing.
func SelectListing(s State, l model.ListingType) []model.Message {
	switch l {
	case model.ListingInbox:
		return s.Messages.Inbox
	case model.ListingOutbox:
		return s.Messages.Outbox
	default:
		return nil
	}
}

// FindMessage looks up a message by id in one listing.
func FindMessage(s State, l model.ListingType, id int64) (model.Message, bool) {
	for _, m := range SelectListing(s, l) {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}
