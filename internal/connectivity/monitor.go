package connectivity

import "sync"

// Monitor reports remote reachability and notifies subscribers on change.
type Monitor interface {
	// Online returns the last observed reachability state.
	Online() bool
	// Subscribe registers a callback invoked on every state transition.
	// The returned function removes the subscription.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// subscribers tracks state-change callbacks.
type subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(bool)
}

func newSubscribers() *subscribers {
	return &subscribers{fns: make(map[int]func(bool))}
}

func (s *subscribers) add(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) notify(online bool) {
	s.mu.Lock()
	fns := make([]func(bool), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}
