package apperr

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConflicts runs fn until it stops failing with ConcurrencyConflict or
// attempts are exhausted. Every other error is returned immediately.
func RetryConflicts(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(5*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrConcurrencyConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}
