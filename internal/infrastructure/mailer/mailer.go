package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends outbound email. Callers treat sends as best-effort: a
// failed send is logged by the caller and never fails the operation that
// triggered it.
type Mailer interface {
	Send(ctx context.Context, toName, toAddr, subject, body string) error
}

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	logger   *slog.Logger
}

// NewSendGrid creates a SendGrid-backed mailer.
func NewSendGrid(apiKey, fromName, fromAddr string, logger *slog.Logger) *SendGridMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		logger:   logger,
	}
}

// Send delivers a plain-text email.
func (m *SendGridMailer) Send(ctx context.Context, toName, toAddr, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toAddr)
	msg := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send rejected: status %d", resp.StatusCode)
	}
	m.logger.Info("email sent", slog.String("to", toAddr), slog.String("subject", subject))
	return nil
}

// NoopMailer logs instead of sending. Used in development when no
// SendGrid API key is configured.
type NoopMailer struct {
	logger *slog.Logger
}

// NewNoop creates a mailer that only logs.
func NewNoop(logger *slog.Logger) *NoopMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopMailer{logger: logger}
}

// Send logs the message and succeeds.
func (m *NoopMailer) Send(ctx context.Context, toName, toAddr, subject, body string) error {
	m.logger.Info("email suppressed (no mailer configured)",
		slog.String("to", toAddr),
		slog.String("subject", subject),
	)
	return nil
}
