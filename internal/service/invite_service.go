package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
	"github.com/noah-isme/classops-api/pkg/mailer"
)

// ErrInviteNotFound indicates no invite matches the supplied token.
var ErrInviteNotFound = errors.New("invite not found")

// ErrInviteEmailMismatch indicates the redeeming account's email differs from
// the invited address.
var ErrInviteEmailMismatch = errors.New("invite was issued to a different email address")

// InviteService issues class invites by email and redeems them into
// enrollments.
type InviteService interface {
	Issue(ctx context.Context, classID, callerID uint, payload dto.InviteIssueRequest) ([]dto.InviteResult, error)
	Accept(ctx context.Context, token string, callerID uint) (dto.InviteAcceptResponse, error)
	Info(ctx context.Context, token string) (dto.InviteInfoResponse, error)
}

type inviteService struct {
	invites   repository.InviteRepository
	classes   repository.ClassRepository
	users     repository.UserRepository
	validator *validator.Validate
	mail      mailer.Mailer
	events    EventPublisher
	activity  ActivityRecorder
	baseURL   string
	logger    zerolog.Logger
}

// NewInviteService constructs an InviteService instance. baseURL is the
// public prefix invite links are built from.
func NewInviteService(invites repository.InviteRepository, classes repository.ClassRepository, users repository.UserRepository, validate *validator.Validate, mail mailer.Mailer, events EventPublisher, activity ActivityRecorder, baseURL string, logger zerolog.Logger) InviteService {
	return &inviteService{
		invites:   invites,
		classes:   classes,
		users:     users,
		validator: validate,
		mail:      mail,
		events:    events,
		activity:  activity,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger.With().Str("component", "invite_service").Logger(),
	}
}

// Issue processes a batch of up to 20 addresses. Each address gets its own
// outcome; one failure never aborts the rest of the batch.
func (s *inviteService) Issue(ctx context.Context, classID, callerID uint, payload dto.InviteIssueRequest) ([]dto.InviteResult, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	role, err := s.classes.RoleOf(ctx, callerID, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if role != models.ClassRoleTeacher {
		return nil, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	inviter, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	results := make([]dto.InviteResult, 0, len(payload.Emails))
	seen := make(map[string]bool, len(payload.Emails))

	for _, raw := range payload.Emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true

		if err := s.validator.Var(email, "email"); err != nil {
			results = append(results, dto.InviteResult{Email: email, Status: dto.InviteResultInvalidEmail})
			continue
		}

		status, err := s.issueOne(ctx, class, inviter, email)
		if err != nil {
			return nil, err
		}

		results = append(results, dto.InviteResult{Email: email, Status: status})
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    classID,
		ActorID:    callerID,
		Action:     "invite.issued",
		EntityType: "class",
		EntityID:   &classID,
		Metadata:   map[string]interface{}{"count": len(results)},
	})

	return results, nil
}

func (s *inviteService) issueOne(ctx context.Context, class models.Class, inviter models.User, email string) (string, error) {
	// An account with this address that already holds an enrollment needs
	// no invite.
	if user, err := s.users.GetByEmail(ctx, email); err == nil {
		if _, err := s.classes.RoleOf(ctx, user.ID, class.ID); err == nil {
			return dto.InviteResultAlreadyEnrolled, nil
		} else if !repository.IsNotFound(err) {
			return "", err
		}
	} else if !repository.IsNotFound(err) {
		return "", err
	}

	if _, err := s.invites.FindPending(ctx, class.ID, email); err == nil {
		return dto.InviteResultAlreadyInvited, nil
	} else if !repository.IsNotFound(err) {
		return "", err
	}

	token, err := newInviteToken()
	if err != nil {
		return "", err
	}

	invite := models.ClassInvite{
		ClassID:   class.ID,
		Email:     email,
		Token:     token,
		Status:    models.InviteStatusPending,
		InvitedBy: inviter.ID,
	}

	if err := s.invites.Create(ctx, &invite); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/invites/%s", s.baseURL, token)
	msg := mailer.Message{
		ToEmail: email,
		Subject: fmt.Sprintf("Invitation to join %s", class.Title),
		TextBody: fmt.Sprintf("%s invited you to join the class %q.\n\nAccept the invitation here: %s\n",
			inviter.Username, class.Title, link),
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("invite email delivery failed")
		return dto.InviteResultEmailFailed, nil
	}

	return dto.InviteResultSent, nil
}

// Accept redeems a token for the authenticated caller. Redeeming an already
// accepted invite, or one for a class the caller joined by another path, is
// idempotent rather than an error.
func (s *inviteService) Accept(ctx context.Context, token string, callerID uint) (dto.InviteAcceptResponse, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.InviteAcceptResponse{}, ErrInviteNotFound
		}
		return dto.InviteAcceptResponse{}, err
	}

	// A spent token is answered idempotently before any account checks.
	if invite.Status == models.InviteStatusAccepted {
		return dto.InviteAcceptResponse{ClassID: invite.ClassID, AlreadyAccepted: true}, nil
	}

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return dto.InviteAcceptResponse{}, err
	}

	if !strings.EqualFold(user.Email, invite.Email) {
		return dto.InviteAcceptResponse{}, ErrInviteEmailMismatch
	}

	if _, err := s.classes.RoleOf(ctx, callerID, invite.ClassID); err == nil {
		if err := s.invites.MarkAccepted(ctx, invite.ID); err != nil {
			return dto.InviteAcceptResponse{}, err
		}
		return dto.InviteAcceptResponse{ClassID: invite.ClassID, AlreadyAccepted: true}, nil
	} else if !repository.IsNotFound(err) {
		return dto.InviteAcceptResponse{}, err
	}

	enrollment := models.Enrollment{
		UserID:  callerID,
		ClassID: invite.ClassID,
		Role:    models.ClassRoleStudent,
	}

	if err := s.invites.Accept(ctx, invite.ID, &enrollment); err != nil {
		if repository.IsDuplicate(err) {
			// Lost the race against a concurrent join; the enrollment
			// exists, so only the status flip remains.
			if err := s.invites.MarkAccepted(ctx, invite.ID); err != nil {
				return dto.InviteAcceptResponse{}, err
			}
			return dto.InviteAcceptResponse{ClassID: invite.ClassID, AlreadyAccepted: true}, nil
		}
		return dto.InviteAcceptResponse{}, err
	}

	s.events.Publish(ctx, SubjectInviteAccepted, invite)
	s.logger.Info().Uint("class_id", invite.ClassID).Uint("user_id", callerID).Msg("invite accepted")

	return dto.InviteAcceptResponse{ClassID: invite.ClassID}, nil
}

// Info is the public, unauthenticated view of an invite link.
func (s *inviteService) Info(ctx context.Context, token string) (dto.InviteInfoResponse, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.InviteInfoResponse{}, ErrInviteNotFound
		}
		return dto.InviteInfoResponse{}, err
	}

	return dto.NewInviteInfoResponse(invite), nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
