package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/mdnotion/internal/notion"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *notion.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// retryDelay is Backoff(attempt), stretched to honor a server Retry-After.
func retryDelay(err error, attempt int) time.Duration {
	d := Backoff(attempt)
	var retryErr *notion.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > d {
		d = retryErr.RetryAfter
	}
	return d
}

// MaxRetries is the number of attempts made for each chunk.
const MaxRetries = 3
