package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on domain mutations.
const (
	SubjectEnrollmentCreated = "classops.enrollment.created"
	SubjectSubmissionCreated = "classops.submission.created"
	SubjectSubmissionDeleted = "classops.submission.deleted"
	SubjectEvaluationCreated = "classops.evaluation.created"
	SubjectInviteAccepted    = "classops.invite.accepted"
)

// EventPublisher emits fire-and-forget domain events. Publish failures are
// logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{})
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// yields a publisher that drops every event, so callers never need to guard.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (p *natsPublisher) Publish(_ context.Context, subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
