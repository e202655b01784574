package utils

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffCap bounds any single retry sleep.
const BackoffCap = 8 * time.Second

// Backoff returns the sleep before retry attempt n (n >= 1):
// min(cap, base * 2^n) multiplied by a uniform jitter in [0.8, 1.2].
func Backoff(base time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > BackoffCap {
		d = BackoffCap
	}
	return Jitter(d, 0.8, 1.2)
}

// Jitter scales d by a uniform random factor in [lo, hi].
func Jitter(d time.Duration, lo, hi float64) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) * (lo + rand.Float64()*(hi-lo)))
}

// SleepCtx sleeps for d or until the context is cancelled, whichever comes
// first. Returns the context error on cancellation.
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
