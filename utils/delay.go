package utils

import (
	"context"
	"math/rand"
	"time"
)

// RandomDelay sleeps for a random duration between min and max, returning
// early if ctx is cancelled. Used between index pages: fixed delays are a
// detectable pattern, a jittered one looks more like a person browsing.
func RandomDelay(ctx context.Context, min, max time.Duration) {
	sleep := min
	if diff := max - min; diff > 0 {
		sleep += time.Duration(rand.Int63n(int64(diff)))
	}
	sleepCtx(ctx, sleep)
}

// SleepBackoff waits base × 2^attempt before the next retry, returning
// early if ctx is cancelled.
//
// EXPONENTIAL BACKOFF means:
//
//	attempt 0 fails → wait base
//	attempt 1 fails → wait 2×base
//	attempt 2 fails → wait 4×base
//
// Hammering a server that is already struggling makes it worse; waiting
// longer each time gives it room to settle.
func SleepBackoff(ctx context.Context, base time.Duration, attempt int) {
	sleepCtx(ctx, base*(1<<uint(attempt)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
