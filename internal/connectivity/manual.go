package connectivity

import "sync"

// Manual is a Monitor whose state is set directly. It backs tests and any
// deployment where reachability is decided externally.
type Manual struct {
	mu     sync.Mutex
	online bool
	subs   *subscribers
}

// NewManual returns a Manual monitor with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online, subs: newSubscribers()}
}

// Online returns the current state.
func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback invoked on every state transition.
func (m *Manual) Subscribe(fn func(online bool)) func() {
	return m.subs.add(fn)
}

// SetOnline updates the state and notifies subscribers on change.
func (m *Manual) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if changed {
		m.subs.notify(online)
	}
}
