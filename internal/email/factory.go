package email

import (
	"context"
	"log/slog"
	"time"
)

const (
	ProviderLog    = "log"
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// Options selects and configures the delivery backend.
type Options struct {
	Provider     string
	ResendAPIKey string
	SMTP         SMTPConfig
	MaxRetries   uint64
}

// NewSender returns a LogSender for the log provider, otherwise the chosen
// network sender wrapped in a RetrySender.
func NewSender(ctx context.Context, opts Options, logger *slog.Logger) Sender {
	var s Sender
	switch opts.Provider {
	case ProviderResend:
		s = NewResendSender(opts.ResendAPIKey)
	case ProviderSMTP:
		s = NewSMTPSender(ctx, opts.SMTP)
	default:
		return NewLogSender(logger)
	}
	if opts.MaxRetries == 0 {
		return s
	}
	return NewRetrySender(s, opts.MaxRetries, 200*time.Millisecond, logger)
}
