package boot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/bootctl/internal/observability"
)

var ErrReadinessTimeout = errors.New("boot: readiness timeout")

const (
	// DefaultReadyTimeout bounds how long consumers wait on readiness.
	DefaultReadyTimeout = 5 * time.Second
	// DefaultPollTick is the fixed poll interval for PollReady.
	DefaultPollTick = 100 * time.Millisecond
)

// WaitReady blocks until the coordinator is ready, the timeout elapses,
// or ctx is cancelled. A timeout is classified ErrReadinessTimeout,
// always distinct from the coordinator's own missing-dependency
// classification: a waiter only ever knows that readiness did not
// arrive in time, not why.
func WaitReady(ctx context.Context, c *Coordinator, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.ReadyCh():
		observability.RecordReadinessWait(c.node, "ready", time.Since(start))
		return nil
	case <-timer.C:
		observability.RecordReadinessWait(c.node, "timeout", time.Since(start))
		return fmt.Errorf("%w: readiness not observed within %s", ErrReadinessTimeout, timeout)
	case <-ctx.Done():
		observability.RecordReadinessWait(c.node, "cancelled", time.Since(start))
		return ctx.Err()
	}
}

// PollReady is the fixed-tick variant of WaitReady for consumers that
// need a side effect per scheduling tick (heartbeat logs, progress
// UI). It preserves the same timeout classification.
func PollReady(ctx context.Context, c *Coordinator, timeout, tick time.Duration, onTick func(elapsed time.Duration)) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	if tick <= 0 {
		tick = DefaultPollTick
	}
	start := time.Now()
	deadline := start.Add(timeout)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if c.Ready() {
			observability.RecordReadinessWait(c.node, "ready", time.Since(start))
			return nil
		}
		if !time.Now().Before(deadline) {
			observability.RecordReadinessWait(c.node, "timeout", time.Since(start))
			return fmt.Errorf("%w: readiness not observed within %s", ErrReadinessTimeout, timeout)
		}
		select {
		case <-ctx.Done():
			observability.RecordReadinessWait(c.node, "cancelled", time.Since(start))
			return ctx.Err()
		case <-ticker.C:
			if onTick != nil {
				onTick(time.Since(start))
			}
		}
	}
}
