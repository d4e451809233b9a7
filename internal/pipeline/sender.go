package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/mdnotion/internal/doctree"
	"golang.org/x/time/rate"
)

// SendFunc delivers one chunk. A non-nil error stops the upload.
type SendFunc func(ctx context.Context, chunk doctree.Chunk) error

// Sender delivers chunks strictly in order, one at a time, keeping at least
// the configured delay between consecutive requests.
type Sender struct {
	limiter *rate.Limiter
	log     *slog.Logger

	maxAttempts int
	delay       func(err error, attempt int) time.Duration
}

// NewSender returns a Sender spacing requests by delay. A delay <= 0 disables pacing.
func NewSender(delay time.Duration, log *slog.Logger) *Sender {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Sender{
		limiter:     rate.NewLimiter(limit, 1),
		log:         log,
		maxAttempts: MaxRetries,
		delay:       retryDelay,
	}
}

// Send delivers chunks in order. Each chunk is attempted up to MaxRetries
// times while the failure is retryable. It returns the number of chunks
// delivered; a non-nil error means chunk[sent] failed and nothing after it
// was attempted.
func (s *Sender) Send(ctx context.Context, chunks []doctree.Chunk, send SendFunc) (int, error) {
	for i, chunk := range chunks {
		if err := s.sendOne(ctx, chunk, send); err != nil {
			return i, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return len(chunks), nil
}

func (s *Sender) sendOne(ctx context.Context, chunk doctree.Chunk, send SendFunc) error {
	var lastErr error
	for attempt := range s.maxAttempts {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		lastErr = send(ctx, chunk)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == s.maxAttempts-1 {
			break
		}
		wait := s.delay(lastErr, attempt)
		s.log.Warn("retryable upload error", "chunk", chunk.Index, "attempt", attempt, "wait", wait, "error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
