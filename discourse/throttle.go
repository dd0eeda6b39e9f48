package discourse

import (
	"context"
	"sync"
	"time"
)

// throttle enforces a minimum delay between consecutive requests of a client.
// The lock is held while waiting, so concurrent callers queue up behind each other.
type throttle struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newThrottle(delay time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) *throttle {
	return &throttle{delay: delay, now: now, sleep: sleep}
}

// wait blocks until delay has passed since the previous call, then records the
// current time as the start of the next request.
func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.delay > 0 && !t.last.IsZero() {
		if elapsed := t.now().Sub(t.last); elapsed < t.delay {
			if err := t.sleep(ctx, t.delay-elapsed); err != nil {
				return err
			}
		}
	}
	t.last = t.now()
	return nil
}
