package embedding

import (
	"context"
	"time"
)

// withRetry retries fn on rate-limit errors with exponential backoff,
// surfacing ErrEmbeddingUnavailable after maxAttempts (§4.1). fn reports
// whether an error is retryable via isRateLimited.
func withRetry(ctx context.Context, maxAttempts int, isRateLimited func(error) bool, fn func() error) error {
	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRateLimited(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}
