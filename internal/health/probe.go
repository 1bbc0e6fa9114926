package health

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Pinger is anything with a cheap liveness call.
type Pinger func(ctx context.Context) error

// Wait calls ping up to attempts times, sleeping delay between tries.
// It returns the last ping error once the attempts are exhausted.
func Wait(ctx context.Context, name string, ping Pinger, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s unhealthy after %d attempts: %w", name, attempts, err)
	}
	return nil
}
