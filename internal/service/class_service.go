package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ErrForbidden indicates the caller lacks the required class role or
// ownership for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrClassNotFound indicates the referenced class does not exist.
var ErrClassNotFound = errors.New("class not found")

// ErrAlreadyEnrolled indicates the user already holds an enrollment in the class.
var ErrAlreadyEnrolled = errors.New("already enrolled")

// ClassService is the enrollment registry: it owns class creation, joining
// and the role lookups every class-scoped operation starts with.
type ClassService interface {
	Create(ctx context.Context, callerID uint, callerRole models.GlobalRole, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Join(ctx context.Context, callerID, classID uint) error
	ListMine(ctx context.Context, callerID uint) ([]dto.EnrolledClassResponse, error)
	ListMembers(ctx context.Context, classID, callerID uint) ([]dto.ClassMemberResponse, error)
}

type classService struct {
	classes   repository.ClassRepository
	validator *validator.Validate
	events    EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(classes repository.ClassRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) ClassService {
	return &classService{
		classes:   classes,
		validator: validate,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, callerID uint, callerRole models.GlobalRole, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if callerRole != models.GlobalRoleTeacher {
		return dto.ClassResponse{}, ErrForbidden
	}

	// Trim first so a whitespace-only title fails the required check.
	payload.Title = strings.TrimSpace(payload.Title)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Title:       payload.Title,
		Description: s.sanitizer.Sanitize(payload.Description),
		OwnerID:     callerID,
	}

	if err := s.classes.CreateWithTeacher(ctx, &class, callerID); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("owner_id", callerID).Msg("class created")

	return dto.NewClassResponse(class), nil
}

func (s *classService) Join(ctx context.Context, callerID, classID uint) error {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if repository.IsNotFound(err) {
			return ErrClassNotFound
		}
		return err
	}

	// Fast-path check for a friendlier error; the unique index on
	// (user_id, class_id) is the authoritative guard under races.
	if _, err := s.classes.RoleOf(ctx, callerID, classID); err == nil {
		return ErrAlreadyEnrolled
	} else if !repository.IsNotFound(err) {
		return err
	}

	enrollment := models.Enrollment{
		UserID:  callerID,
		ClassID: classID,
		Role:    models.ClassRoleStudent,
	}

	if err := s.classes.CreateEnrollment(ctx, &enrollment); err != nil {
		if repository.IsDuplicate(err) {
			return ErrAlreadyEnrolled
		}
		return err
	}

	s.events.Publish(ctx, SubjectEnrollmentCreated, enrollment)
	s.logger.Info().Uint("class_id", classID).Uint("user_id", callerID).Msg("student joined class")

	return nil
}

func (s *classService) ListMine(ctx context.Context, callerID uint) ([]dto.EnrolledClassResponse, error) {
	classes, err := s.classes.ListByUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrolledClassResponseSlice(classes), nil
}

func (s *classService) ListMembers(ctx context.Context, classID, callerID uint) ([]dto.ClassMemberResponse, error) {
	if _, err := s.classes.RoleOf(ctx, callerID, classID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	members, err := s.classes.ListMembers(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassMemberResponseSlice(members), nil
}
