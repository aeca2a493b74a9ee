package reconcile

import (
	"context"
	"sync"
	"time"
)

// turn is the single execution context every callback runs in: mutation
// batches, lifecycle events, timers and clicks. A callback holds the turn
// until it returns or reaches a suspension point (sleep, await), where
// other queued callbacks may run before it resumes.
type turn struct {
	mu sync.Mutex
}

func (t *turn) run(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}

// sleep suspends the current callback for d. Must be called while holding
// the turn; the turn is held again when sleep returns.
func (t *turn) sleep(ctx context.Context, d time.Duration) error {
	t.mu.Unlock()
	defer t.mu.Lock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// await suspends the current callback while fn runs. Must be called while
// holding the turn.
func (t *turn) await(fn func() error) error {
	t.mu.Unlock()
	defer t.mu.Lock()
	return fn()
}
