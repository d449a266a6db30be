// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"
	"time"

	"github.com/cloudflare/backoff"
)

const (
	maxRetryAttempts   = 5
	maxBackoffDuration = 30 * time.Second
	backoffInterval    = 500 * time.Millisecond
)

// withRetry runs f up to maxRetryAttempts times with an exponential backoff
// between attempts, stopping early on success or context cancellation. A
// read-only metadata adapter has no long-running DDL locks to wait out, so
// there is no single error code to special-case; any transient error gets
// a bounded number of attempts instead of an unbounded retry-until-unlocked
// loop.
func withRetry(ctx context.Context, f func() error) error {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = f()
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetryAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return lastErr
}
