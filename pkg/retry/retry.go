// Package retry provides the bounded polling used for device readiness
// waits and the best-effort policy wrapper used by probe operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/device-doctor/pkg/logger"
)

// TimeoutError reports a poll that did not succeed within its deadline.
type TimeoutError struct {
	What    string
	Timeout time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: not ready after %v: %v", e.What, e.Timeout, e.Last)
	}
	return fmt.Sprintf("%s: not ready after %v", e.What, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

var errNotReady = errors.New("not ready")

// Poll invokes probe at the given interval until it reports ready, the
// timeout expires, or the context is cancelled. Probe errors are logged
// and retried; only the deadline ends the wait. Timeout expiry surfaces
// as a *TimeoutError, never a silent return.
func Poll(ctx context.Context, what string, interval, timeout time.Duration, probe func() (bool, error)) error {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last error
	op := func() error {
		ready, err := probe()
		if err != nil {
			logger.Debug("%s: probe error: %v", what, err)
			last = err
			return err
		}
		if !ready {
			last = nil
			return errNotReady
		}
		return nil
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(interval), pollCtx)
	if err := backoff.Retry(op, bo); err != nil {
		// Caller cancellation is not a timeout; report it as-is.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pollCtx.Err() != nil {
			return &TimeoutError{What: what, Timeout: timeout, Last: last}
		}
		return err
	}
	return nil
}

// BestEffort runs a probe under the swallow-and-downgrade policy: any
// failure is logged and reported as a negative result instead of an
// error. Installation paths must NOT use this; they propagate.
func BestEffort(what string, probe func() (bool, error)) bool {
	ok, err := probe()
	if err != nil {
		logger.Warn("%s: %v (best-effort probe, treating as negative)", what, err)
		return false
	}
	return ok
}
