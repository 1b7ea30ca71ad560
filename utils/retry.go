package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryWithBackoff calls fn up to maxRetries times. Attempt n waits n*n*base
// before running; ctx cancellation stops the loop early.
func RetryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error, logger zerolog.Logger) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * base
			logger.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", maxRetries).
				Dur("backoff", backoff).
				Msg("retrying")
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			logger.Error().Err(err).Int("attempt", attempt+1).Msg("attempt failed")
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
