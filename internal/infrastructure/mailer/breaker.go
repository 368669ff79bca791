package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/reliability/circuitbreaker"
)

// ErrCircuitOpen is returned when the mail provider has been failing and
// sends are being skipped to let it recover.
var ErrCircuitOpen = errors.New("mailer circuit open")

// BreakerMailer wraps a Mailer with a circuit breaker so a failing
// provider fails fast instead of holding every caller through retries.
type BreakerMailer struct {
	inner   Mailer
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewBreaker wraps a mailer. The circuit trips after 5 consecutive
// failures and probes again after a minute.
func NewBreaker(inner Mailer, logger *slog.Logger) *BreakerMailer {
	if logger == nil {
		logger = slog.Default()
	}
	cb := circuitbreaker.NewCircuitBreaker(5, 2, time.Minute)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("mailer circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &BreakerMailer{inner: inner, breaker: cb, logger: logger}
}

// Send delivers through the wrapped mailer unless the circuit is open.
func (m *BreakerMailer) Send(ctx context.Context, toName, toAddr, subject, body string) error {
	if !m.breaker.AllowRequest() {
		return ErrCircuitOpen
	}
	if err := m.inner.Send(ctx, toName, toAddr, subject, body); err != nil {
		m.breaker.RecordFailure()
		return err
	}
	m.breaker.RecordSuccess()
	return nil
}
