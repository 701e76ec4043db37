// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected background work
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn in a goroutine. A panic is logged with its stack and does not
// take the process down; a returned error is logged at error level.
//
// Example:
//
//	common.SafeGo(logger, "fixture-server", func() error {
//	    return server.ListenAndServe()
//	})
func SafeGo(logger arbor.ILogger, name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", GetStackTrace()).
					Msg("Recovered from panic in goroutine")
			}
		}()

		if err := fn(); err != nil {
			logger.Error().Err(err).Str("goroutine", name).Msg("Goroutine exited with error")
		}
	}()
}

// SafeGoWithContext is SafeGo that skips fn when ctx is already done
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func() error) {
	SafeGo(logger, name, func() error {
		select {
		case <-ctx.Done():
			logger.Debug().Str("goroutine", name).Msg("Goroutine cancelled before start")
			return nil
		default:
		}
		return fn()
	})
}
