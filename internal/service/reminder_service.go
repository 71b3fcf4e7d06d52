package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
	"github.com/noah-isme/classops-api/pkg/mailer"
)

// ReminderService emails enrolled students shortly before an assignment
// deadline. Each assignment is reminded at most once.
type ReminderService struct {
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	mail        mailer.Mailer
	interval    time.Duration
	window      time.Duration
	logger      zerolog.Logger
}

// NewReminderService constructs a ReminderService instance.
func NewReminderService(assignments repository.AssignmentRepository, classes repository.ClassRepository, mail mailer.Mailer, interval, window time.Duration, logger zerolog.Logger) *ReminderService {
	return &ReminderService{
		assignments: assignments,
		classes:     classes,
		mail:        mail,
		interval:    interval,
		window:      window,
		logger:      logger.With().Str("component", "reminder_service").Logger(),
	}
}

// Run sweeps on a fixed interval until the context is cancelled. It is meant
// to run as a single background goroutine.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Dur("window", s.window).Msg("reminder sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("reminder sweep failed")
			}
		}
	}
}

// Sweep sends reminders for every assignment whose deadline falls inside the
// window. The sent flag is flipped before delivery so a flaky mailer cannot
// cause repeat reminders on the next sweep.
func (s *ReminderService) Sweep(ctx context.Context) error {
	due, err := s.assignments.ListDueForReminder(ctx, time.Now(), s.window)
	if err != nil {
		return err
	}

	for _, assignment := range due {
		if err := s.assignments.MarkReminderSent(ctx, assignment.ID); err != nil {
			s.logger.Error().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to mark reminder sent")
			continue
		}

		if err := s.remind(ctx, assignment); err != nil {
			s.logger.Error().Err(err).Uint("assignment_id", assignment.ID).Msg("reminder delivery failed")
		}
	}

	return nil
}

func (s *ReminderService) remind(ctx context.Context, assignment models.Assignment) error {
	members, err := s.classes.ListMembers(ctx, assignment.ClassID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Deadline approaching: %s", assignment.Title)
	body := fmt.Sprintf("The assignment %q is due at %s. Make sure your work is submitted before the deadline.\n",
		assignment.Title, assignment.Deadline.Format(time.RFC1123))

	sent := 0
	for _, member := range members {
		if member.Role != models.ClassRoleStudent {
			continue
		}

		msg := mailer.Message{
			ToEmail:  member.Email,
			ToName:   member.Username,
			Subject:  subject,
			TextBody: body,
		}

		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Error().Err(err).Str("email", member.Email).Msg("reminder email failed")
			continue
		}
		sent++
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Int("recipients", sent).Msg("deadline reminders sent")

	return nil
}
