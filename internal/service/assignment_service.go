package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService exposes assignment catalog use cases.
type AssignmentService interface {
	Create(ctx context.Context, classID, callerID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id, callerID uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id, callerID uint) error
	ListForClass(ctx context.Context, classID, callerID uint) ([]dto.AnnotatedAssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	uploader    FileUploader
	activity    ActivityRecorder
	logger      zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, classes repository.ClassRepository, validate *validator.Validate, uploader FileUploader, activity ActivityRecorder, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		classes:     classes,
		validator:   validate,
		uploader:    uploader,
		activity:    activity,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) requireClassTeacher(ctx context.Context, callerID, classID uint) error {
	role, err := s.classes.RoleOf(ctx, callerID, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrForbidden
		}
		return err
	}

	if role != models.ClassRoleTeacher {
		return ErrForbidden
	}

	return nil
}

func (s *assignmentService) Create(ctx context.Context, classID, callerID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.requireClassTeacher(ctx, callerID, classID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
	}

	assignment := models.Assignment{
		ClassID:        classID,
		Title:          payload.Title,
		Description:    payload.Description,
		SubmissionType: models.SubmissionType(payload.SubmissionType),
		Deadline:       deadline,
	}

	// Upload must complete before the row exists; a failed upload aborts
	// the create with no partial state.
	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    classID,
		ActorID:    callerID,
		Action:     "assignment.created",
		EntityType: "assignment",
		EntityID:   &assignment.ID,
	})
	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id, callerID uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if err := s.requireClassTeacher(ctx, callerID, assignment.ClassID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}

	if payload.Description != nil {
		assignment.Description = *payload.Description
	}

	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
		}
		assignment.Deadline = deadline
	}

	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id, callerID uint) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.requireClassTeacher(ctx, callerID, assignment.ClassID); err != nil {
		return err
	}

	if err := s.assignments.DeleteCascade(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    assignment.ClassID,
		ActorID:    callerID,
		Action:     "assignment.deleted",
		EntityType: "assignment",
		EntityID:   &id,
	})
	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")

	return nil
}

// ListForClass returns the class's assignments, each annotated with whether
// the caller has already submitted, directly or through their group.
func (s *assignmentService) ListForClass(ctx context.Context, classID, callerID uint) ([]dto.AnnotatedAssignmentResponse, error) {
	if _, err := s.classes.RoleOf(ctx, callerID, classID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	submitted, err := s.submissions.SubmittedAssignmentIDs(ctx, classID, callerID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AnnotatedAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.AnnotatedAssignmentResponse{
			AssignmentResponse: dto.NewAssignmentResponse(assignment),
			Submitted:          submitted[assignment.ID],
		})
	}

	return responses, nil
}

func (s *assignmentService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}
