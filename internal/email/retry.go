package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetrySender retries transient delivery failures with exponential backoff.
// The last error is returned to the caller once retries are exhausted.
type RetrySender struct {
	next       Sender
	maxRetries uint64
	base       time.Duration
	logger     *slog.Logger
}

func NewRetrySender(next Sender, maxRetries uint64, base time.Duration, logger *slog.Logger) *RetrySender {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RetrySender{
		next:       next,
		maxRetries: maxRetries,
		base:       base,
		logger:     logger.With("component", "mail_retry"),
	}
}

func (s *RetrySender) Send(ctx context.Context, msg Message) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.base))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := s.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.logger.WarnContext(ctx, "send email failed", "attempt", attempt, "to", msg.To, "error", err)
		return retry.RetryableError(err)
	})
}
