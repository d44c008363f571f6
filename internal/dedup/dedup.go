// Package dedup collapses concurrent and repeated invocations of a
// side-effecting operation into a single execution per key.
package dedup

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Ledger guarantees that the operation for a given key runs at most once for
// the lifetime of the Ledger. Concurrent callers share the in-flight call
// (via singleflight); later callers receive the recorded outcome without a
// new execution.
//
// Unlike a cache, settled failures are retained too. The guarded operations
// redeem one-time tokens: after a failed attempt the client cannot tell a
// genuinely invalid token from one that was consumed by the very request
// whose response was lost, so re-issuing could report a spurious failure for
// a token that actually succeeded. Obtaining a fresh key is the retry path.
// Forget exists for callers that positively know a failure never left the
// client.
type Ledger struct {
	group singleflight.Group

	mu      sync.Mutex
	settled map[string]outcome
}

type outcome struct {
	value any
	err   error
}

func NewLedger() *Ledger {
	return &Ledger{settled: make(map[string]outcome)}
}

// Run executes fn under key, or returns the already-settled outcome for key.
//
// fn receives a context detached from the caller's cancellation: the outcome
// is shared by every caller of this key (present and future), so the first
// caller abandoning the operation must not cancel it for the rest.
func (l *Ledger) Run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if o, ok := l.lookup(key); ok {
		return o.value, o.err
	}

	opCtx := context.WithoutCancel(ctx)

	v, err, _ := l.group.Do(key, func() (any, error) {
		// Re-check under the flight: a previous flight may have settled
		// between the caller's lookup and this Do.
		if o, ok := l.lookup(key); ok {
			return o.value, o.err
		}

		v, err := fn(opCtx)

		l.mu.Lock()
		l.settled[key] = outcome{value: v, err: err}
		l.mu.Unlock()

		return v, err
	})
	return v, err
}

// Settled reports whether key has a recorded outcome.
func (l *Ledger) Settled(key string) bool {
	_, ok := l.lookup(key)
	return ok
}

// Forget drops the settled outcome for key, allowing a future Run to execute
// again. Use only when the recorded failure is known to be local.
func (l *Ledger) Forget(key string) {
	l.mu.Lock()
	delete(l.settled, key)
	l.mu.Unlock()
}

func (l *Ledger) lookup(key string) (outcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.settled[key]
	return o, ok
}
