package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is a single outbound email.
type Message struct {
	ToEmail  string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers outbound email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Console logs messages instead of delivering them, for development and
// tests.
type Console struct {
	Logger zerolog.Logger
}

// Send writes the message to the log.
func (c Console) Send(_ context.Context, msg Message) error {
	c.Logger.Info().
		Str("component", "mailer").
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Msg("email (console delivery)")

	return nil
}
