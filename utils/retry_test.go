package utils

import (
	"context"
	"testing"
	"time"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	base := time.Second
	for attempt := 1; attempt <= 10; attempt++ {
		d := Backoff(base, attempt)
		if max := time.Duration(float64(BackoffCap) * 1.2); d > max {
			t.Errorf("attempt %d: %v exceeds cap %v", attempt, d, max)
		}
	}

	// High attempts saturate at the cap (within jitter bounds).
	d := Backoff(base, 10)
	if min := time.Duration(float64(BackoffCap) * 0.8); d < min {
		t.Errorf("saturated backoff %v below %v", d, min)
	}
}

func TestJitterBounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		j := Jitter(d, 0.5, 1.5)
		if j < 50*time.Millisecond || j > 150*time.Millisecond {
			t.Fatalf("jitter %v outside [50ms, 150ms]", j)
		}
	}
	if Jitter(0, 0.5, 1.5) != 0 {
		t.Error("zero duration must stay zero")
	}
}

func TestSleepCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := SleepCtx(ctx, time.Minute); err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("SleepCtx did not return promptly on cancellation")
	}
}
