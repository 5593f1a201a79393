package store

import (
	"sync"
	"time"
)

// DefaultThrottle is the minimum interval between subscription deliveries.
const DefaultThrottle = 100 * time.Millisecond

// timeBudget is how long a handler may run before a slow-handler warning.
const timeBudget = 16 * time.Millisecond

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

type subscriptionConfig struct {
	// throttle is the minimum interval between notifications.
	throttle time.Duration

	// fireImmediately invokes the handler once at subscribe time.
	fireImmediately bool

	// runSynchronously bypasses throttling entirely and delivers inline
	// from Dispatch. Test mode.
	runSynchronously bool

	// noTimeBudgetWarns suppresses slow-handler diagnostics.
	noTimeBudgetWarns bool
}

func defaultSubscriptionConfig() subscriptionConfig {
	return subscriptionConfig{throttle: DefaultThrottle}
}

// WithThrottle sets the minimum interval between notifications.
func WithThrottle(d time.Duration) SubscriptionOption {
	return func(c *subscriptionConfig) {
		if d > 0 {
			c.throttle = d
		}
	}
}

// WithFireImmediately invokes the handler once on subscribe.
func WithFireImmediately() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.fireImmediately = true
	}
}

// WithRunSynchronously bypasses throttling and delivers every snapshot
// inline from Dispatch. Intended for tests.
func WithRunSynchronously() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.runSynchronously = true
	}
}

// WithNoTimeBudgetWarns suppresses slow-handler diagnostics.
func WithNoTimeBudgetWarns() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.noTimeBudgetWarns = true
	}
}

// subscription delivers snapshots to one handler. Throttled subscriptions
// coalesce: only the latest pending snapshot is delivered when the timer
// fires. Handler invocations never overlap.
type subscription struct {
	handler func(State)
	cfg     subscriptionConfig
	logger  Logger

	// handlerMu serializes throttled handler invocations.
	handlerMu sync.Mutex

	mu       sync.Mutex
	pending  *State
	timer    *time.Timer
	lastFire time.Time
	stopped  bool
}

// notify hands a snapshot to the subscription for delivery.
func (sub *subscription) notify(snap State) {
	if sub.cfg.runSynchronously {
		sub.invoke(snap)
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.stopped {
		return
	}
	sub.pending = &snap
	if sub.timer != nil {
		return // a delivery is already scheduled; it picks up pending
	}

	delay := sub.cfg.throttle - time.Since(sub.lastFire)
	if delay < 0 {
		delay = 0
	}
	sub.timer = time.AfterFunc(delay, sub.fire)
}

// fire delivers the latest pending snapshot.
func (sub *subscription) fire() {
	sub.mu.Lock()
	snap := sub.pending
	sub.pending = nil
	sub.timer = nil
	sub.lastFire = time.Now()
	stopped := sub.stopped
	sub.mu.Unlock()

	if stopped || snap == nil {
		return
	}
	sub.invoke(*snap)
}

// invoke runs the handler, measuring against the time budget. Synchronous
// subscriptions deliver inline from Dispatch on the dispatching goroutine,
// so a handler that dispatches re-enters invoke; taking handlerMu there
// would block the goroutine on its own lock. Re-entrant handlers guard
// themselves.
func (sub *subscription) invoke(snap State) {
	if !sub.cfg.runSynchronously {
		sub.handlerMu.Lock()
		defer sub.handlerMu.Unlock()
	}

	start := time.Now()
	sub.handler(snap)
	elapsed := time.Since(start)

	if elapsed > timeBudget && !sub.cfg.noTimeBudgetWarns && sub.logger != nil {
		sub.logger.Warn("slow store subscription handler: %v", elapsed)
	}
}

// stop cancels any scheduled delivery.
func (sub *subscription) stop() {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	sub.stopped = true
	sub.pending = nil
	if sub.timer != nil {
		sub.timer.Stop()
		sub.timer = nil
	}
}
