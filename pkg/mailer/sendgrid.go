package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridConfig holds the credentials and sender identity.
type SendgridConfig struct {
	APIKey      string
	FromName    string
	FromAddress string
}

// Sendgrid delivers email through the SendGrid v3 API.
type Sendgrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendgrid constructs a SendGrid-backed mailer.
func NewSendgrid(cfg SendgridConfig, logger zerolog.Logger) (*Sendgrid, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("sendgrid api key and from address must be provided")
	}

	return &Sendgrid{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger.With().Str("component", "sendgrid").Logger(),
	}, nil
}

// Send delivers a single message. Delivery failures are returned to the
// caller; invite batches record them per address instead of failing whole.
func (s *Sendgrid) Send(_ context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)

	body := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.TextBody, msg.HTMLBody)
	response, err := s.client.Send(body)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}

	s.logger.Info().Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("email sent")

	return nil
}
