package state

import "sync"

// Store is the single state container of the client. Mutations go
// through Dispatch; readers take snapshots or subscribe.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]chan State
	next  int
}

// NewStore creates a store holding the initial state.
func NewStore() *Store {
	return &Store{
		state: Initial(),
		subs:  make(map[int]chan State),
	}
}

// Dispatch applies actions in order and publishes the resulting state.
func (s *Store) Dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range actions {
		s.state = Reduce(s.state, a)
	}
	for _, ch := range s.subs {
		publish(ch, s.state)
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest state not yet
// received. Intermediate states may be skipped. The returned func stops
// the subscription.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// publish replaces any pending state in ch with st without blocking.
func publish(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}
