package installed

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

// Refresher re-reads the installed-plugin store off the synchronous command
// path. Refresh runs on a worker pool and reports the listing through a
// callback; results re-enter the lifecycle machinery only as newly enqueued
// commands, never as direct mutation.
type Refresher struct {
	store   *Store
	pool    *ants.Pool
	onList  func([]*plugin.Details)
	retries uint64
}

// NewRefresher creates a refresher with the given worker count. onList is
// invoked from a pool worker with the freshly read listing.
func NewRefresher(store *Store, workers int, onList func([]*plugin.Details)) (*Refresher, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh pool: %w", err)
	}
	return &Refresher{
		store:   store,
		pool:    pool,
		onList:  onList,
		retries: 3,
	}, nil
}

// Refresh schedules one refresh pass. Returns an error only if the pool
// rejects the job; read failures are retried with exponential backoff and
// then dropped (the next change signal triggers another pass).
func (r *Refresher) Refresh() error {
	return r.pool.Submit(func() {
		var details []*plugin.Details
		read := func() error {
			var err error
			details, err = r.store.ListInstalled()
			return err
		}

		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = 50 * time.Millisecond
		if err := backoff.Retry(read, backoff.WithMaxRetries(policy, r.retries)); err != nil {
			return
		}
		r.onList(details)
	})
}

// Close releases the worker pool.
func (r *Refresher) Close() {
	r.pool.Release()
}
