package common

import (
	"fmt"
	"time"
)

// Sleeper pauses between attempts. Tests substitute a recording sleeper.
type Sleeper func(time.Duration)

// Retry runs op up to attempts times with a fixed delay between attempts (no
// backoff). Errors from every attempt but the last are swallowed; the last
// attempt's error is returned unchanged. The attempt count actually used is
// returned alongside the value.
func Retry[T any](attempts int, delay time.Duration, sleep Sleeper, op func(attempt int) (T, error)) (T, int, error) {
	var zero T
	if attempts < 1 {
		return zero, 0, fmt.Errorf("retry: attempts must be at least 1, got %d", attempts)
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := op(attempt)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err
		if attempt < attempts {
			sleep(delay)
		}
	}
	return zero, attempts, lastErr
}

// Poll evaluates check every interval until it returns nil or timeout elapses.
// The check always runs at least once; on timeout the most recent error is returned.
func Poll(timeout, interval time.Duration, check func() error) error {
	deadline := time.Now().Add(timeout)
	for {
		err := check()
		if err == nil {
			return nil
		}
		if !time.Now().Add(interval).Before(deadline) {
			return err
		}
		time.Sleep(interval)
	}
}
