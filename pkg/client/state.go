package client

import "sync"

// Event identifies what changed the authentication state.
type Event string

const (
	EventLogin  Event = "login"
	EventLogout Event = "logout"
	EventUpdate Event = "update"
)

// Update is delivered to subscribers whenever the authenticated user
// changes. User is nil for EventLogout.
type Update struct {
	Event Event
	User  *User
}

// State holds the currently authenticated user and notifies subscribers on
// change. It replaces ambient global user state with an explicit object and
// a defined update channel.
type State struct {
	mu      sync.RWMutex
	current *User
	subs    map[int]chan Update
	nextSub int
}

// NewState creates an empty State with no authenticated user.
func NewState() *State {
	return &State{subs: make(map[int]chan Update)}
}

// Current returns a copy of the authenticated user, or nil when logged out.
func (s *State) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Subscribe registers for state updates. The returned cancel function must
// be called to release the subscription. Updates are delivered best-effort;
// a subscriber that stops draining its channel misses events rather than
// blocking publishers.
func (s *State) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, 8)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *State) publish(event Event, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = user
	for _, ch := range s.subs {
		select {
		case ch <- Update{Event: event, User: user}:
		default:
		}
	}
}
