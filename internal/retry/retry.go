// Package retry implements exponential backoff with jitter for provider and
// LLM adapter calls, retrying only errors classified as errkind.Transient.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/errkind"
)

// Config controls backoff behavior. Defaults match spec: 3 attempts, 0.5-1.0s
// initial delay, 8s cap.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// Default returns the package-default retry configuration.
func Default() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 750 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Factor:       2.0,
	}
}

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// Do executes op with jittered exponential backoff. Non-Transient errors
// (including unclassified ones) abort immediately without retry.
func Do(ctx context.Context, cfg Config, op string, fn Operation) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errkind.Transientf(op, err)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().Str("op", op).Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !errkind.Is(err, errkind.Transient) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := jitter(delay)
		log.Warn().Str("op", op).Err(err).Int("attempt", attempt).Dur("backoff", wait).
			Msg("transient failure, retrying with jittered backoff")

		select {
		case <-ctx.Done():
			return errkind.Transientf(op, ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Factor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return errkind.Transientf(op, lastErr)
}

// jitter returns a duration uniformly distributed in [d/2, d] (half of d
// plus a random share of the other half), so concurrent retries across
// providers do not synchronize.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half+1)))
}
