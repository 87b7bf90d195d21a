package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second
)

// RetryingSender retries a failed send a fixed number of times with a fixed
// delay between attempts. The last error is returned once attempts run out.
type RetryingSender struct {
	next     Sender
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

func NewRetryingSender(next Sender, attempts int, delay time.Duration, logger *slog.Logger) *RetryingSender {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &RetryingSender{next: next, attempts: attempts, delay: delay, logger: logger}
}

func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewConstant(s.delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.next.Send(ctx, msg); err != nil {
			s.logger.Warn("email send failed", "to", msg.To, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "attempts", attempt)
	return nil
}
