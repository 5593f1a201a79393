// Package notify is the user-facing notification sink. Lifecycle handlers
// publish notifications here; UI layers subscribe to render them as toasts.
package notify

import "sync"

// Severity classifies a notification.
type Severity int

const (
	// SeverityInfo is an informational notice.
	SeverityInfo Severity = iota

	// SeverityWarning is a recoverable problem worth the user's attention.
	SeverityWarning

	// SeverityError is a failed user-visible operation.
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is one user-visible message.
type Notification struct {
	Severity Severity
	Message  string
}

// Observer is called for every published notification.
type Observer func(n Notification)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier fans notifications out to observers. Delivery is synchronous
// unless WithAsync is given.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
	closed    bool

	async  bool
	buffer chan Notification
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery through a buffered channel.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Notification, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]Observer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}
	return n
}

// Subscribe registers an observer for all notifications.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// Publish delivers a notification to all observers.
func (n *Notifier) Publish(notification Notification) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- notification:
		case <-n.done:
		}
		return
	}
	n.deliver(notification)
}

// ShowError publishes an error notification. This is the surface the
// lifecycle controller uses for failed loads and uninstalls.
func (n *Notifier) ShowError(message string) {
	n.Publish(Notification{Severity: SeverityError, Message: message})
}

// ShowWarning publishes a warning notification.
func (n *Notifier) ShowWarning(message string) {
	n.Publish(Notification{Severity: SeverityWarning, Message: message})
}

// ShowInfo publishes an informational notification.
func (n *Notifier) ShowInfo(message string) {
	n.Publish(Notification{Severity: SeverityInfo, Message: message})
}

// Close shuts the notifier down. Safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// deliver calls observers outside the lock.
func (n *Notifier) deliver(notification Notification) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.observers))
	for _, obs := range n.observers {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(notification)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case notification := <-n.buffer:
			n.deliver(notification)
		case <-n.done:
			for {
				select {
				case notification := <-n.buffer:
					n.deliver(notification)
				default:
					return
				}
			}
		}
	}
}
