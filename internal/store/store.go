package store

import "sync"

// Logger is the minimal logging surface the store needs for slow-handler
// diagnostics. Satisfied by the application logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Store holds the state and fans out snapshots to subscribers after every
// dispatch.
type Store struct {
	mu    sync.Mutex
	state State

	subs      map[int]*subscription
	nextSubID int

	logger Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for subscription diagnostics.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state: newState(),
		subs:  make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns a snapshot of the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies an action and notifies subscribers with the resulting
// snapshot. Dispatch is safe to call from subscription handlers: the lock
// is released before notification.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	reduce(&s.state, action)
	snap := s.state.clone()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.notify(snap)
	}
}

// Subscribe registers a handler invoked with state snapshots after
// dispatches. Delivery is throttled unless WithRunSynchronously is given.
// Returns an unsubscribe function; unsubscribing is idempotent.
func (s *Store) Subscribe(handler func(State), opts ...SubscriptionOption) func() {
	if handler == nil {
		return func() {}
	}

	cfg := defaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := &subscription{
		handler: handler,
		cfg:     cfg,
		logger:  s.logger,
	}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	snap := s.state.clone()
	s.mu.Unlock()

	if cfg.fireImmediately {
		sub.invoke(snap)
	}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.stop()
	}
}
