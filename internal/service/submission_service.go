package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAlreadySubmitted indicates a submission already exists for the
// assignment and submitter identity.
var ErrAlreadySubmitted = errors.New("already submitted")

// ErrOnlyLeaderMaySubmit indicates a non-leader member attempted a group
// submission mutation.
var ErrOnlyLeaderMaySubmit = errors.New("only the group leader can submit")

// ErrEmptySubmission indicates neither content nor a file was provided.
var ErrEmptySubmission = errors.New("submission requires content or a file")

// ErrUploadFailed indicates the blob store rejected the attached file.
var ErrUploadFailed = errors.New("file upload failed")

// SubmissionService drives the submission lifecycle: create, edit, evaluate
// visibility and delete, under the ownership rules of the assignment's
// submission type.
type SubmissionService interface {
	Create(ctx context.Context, assignmentID, callerID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Edit(ctx context.Context, submissionID, callerID uint, payload dto.SubmissionUpdateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, submissionID, callerID uint) error
	GetMine(ctx context.Context, assignmentID, callerID uint) (*dto.SubmissionResponse, error)
	ListForAssignment(ctx context.Context, assignmentID, callerID uint, latestFirst bool) ([]dto.SubmissionDetailResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	uploader    FileUploader
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, groups repository.GroupRepository, classes repository.ClassRepository, validate *validator.Validate, uploader FileUploader, events EventPublisher, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		groups:      groups,
		classes:     classes,
		validator:   validate,
		uploader:    uploader,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Create(ctx context.Context, assignmentID, callerID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.classes.RoleOf(ctx, callerID, assignment.ClassID); err != nil {
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrForbidden
		}
		return dto.SubmissionResponse{}, err
	}

	ref, err := s.resolveSubmitter(ctx, assignment, callerID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Fast-path duplicate check; the partial unique indexes remain the
	// authoritative guard under concurrent double-submits.
	if err := s.checkNotSubmitted(ctx, assignmentID, ref); err != nil {
		return dto.SubmissionResponse{}, err
	}

	content := s.sanitizer.Sanitize(payload.Content)
	if content == "" && file == nil {
		return dto.SubmissionResponse{}, ErrEmptySubmission
	}

	submission, err := models.NewSubmission(assignment, ref)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	submission.Content = content

	// The upload must complete and yield a URL before the row is inserted;
	// a failed upload aborts the whole operation with no row created.
	if file != nil {
		if err := validateFileType(file); err != nil {
			return dto.SubmissionResponse{}, err
		}

		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FileURL = url
		submission.FileName = file.Filename
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if repository.IsDuplicate(err) {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		return dto.SubmissionResponse{}, err
	}

	s.events.Publish(ctx, SubjectSubmissionCreated, submission)
	s.logger.Info().Uint("submission_id", submission.ID).Uint("assignment_id", assignmentID).Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Edit(ctx context.Context, submissionID, callerID uint, payload dto.SubmissionUpdateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := s.requireOwnership(ctx, submission, callerID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Content = s.sanitizer.Sanitize(payload.Content)

	// Prior filename survives unless a new file replaces it.
	if file != nil {
		if err := validateFileType(file); err != nil {
			return dto.SubmissionResponse{}, err
		}

		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FileURL = url
		submission.FileName = file.Filename
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission updated")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Delete(ctx context.Context, submissionID, callerID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrSubmissionNotFound
		}
		return err
	}

	if err := s.requireOwnership(ctx, submission, callerID); err != nil {
		return err
	}

	if err := s.submissions.Delete(ctx, submissionID); err != nil {
		return err
	}

	s.events.Publish(ctx, SubjectSubmissionDeleted, submission)
	s.logger.Info().Uint("submission_id", submissionID).Msg("submission deleted")

	return nil
}

// GetMine resolves the caller's own submission for the assignment. A missing
// submission is an expected state and returns nil, not an error.
func (s *submissionService) GetMine(ctx context.Context, assignmentID, callerID uint) (*dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if _, err := s.classes.RoleOf(ctx, callerID, assignment.ClassID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	var submission models.Submission
	switch assignment.SubmissionType {
	case models.SubmissionTypeIndividual:
		submission, err = s.submissions.GetByAssignmentAndUser(ctx, assignmentID, callerID)
	case models.SubmissionTypeGroup:
		member, memberErr := s.groups.MembershipInClass(ctx, assignment.ClassID, callerID)
		if memberErr != nil {
			if repository.IsNotFound(memberErr) {
				return nil, nil
			}
			return nil, memberErr
		}
		submission, err = s.submissions.GetByAssignmentAndGroup(ctx, assignmentID, member.GroupID)
	default:
		return nil, fmt.Errorf("unknown submission type %q", assignment.SubmissionType)
	}

	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	response := dto.NewSubmissionResponse(submission)

	return &response, nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, assignmentID, callerID uint, latestFirst bool) ([]dto.SubmissionDetailResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	role, err := s.classes.RoleOf(ctx, callerID, assignment.ClassID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !role.CanEvaluate() {
		return nil, ErrForbidden
	}

	details, err := s.submissions.ListForAssignment(ctx, assignmentID, latestFirst)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionDetailResponseSlice(details), nil
}

// resolveSubmitter maps the caller to the submitter identity the assignment
// type demands: themselves for INDIVIDUAL, their group (leader only) for GROUP.
func (s *submissionService) resolveSubmitter(ctx context.Context, assignment models.Assignment, callerID uint) (models.SubmitterRef, error) {
	switch assignment.SubmissionType {
	case models.SubmissionTypeIndividual:
		return models.IndividualSubmitter(callerID), nil
	case models.SubmissionTypeGroup:
		member, err := s.groups.MembershipInClass(ctx, assignment.ClassID, callerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return models.SubmitterRef{}, ErrForbidden
			}
			return models.SubmitterRef{}, err
		}
		if member.Role != models.GroupRoleLeader {
			return models.SubmitterRef{}, ErrOnlyLeaderMaySubmit
		}
		return models.GroupSubmitter(member.GroupID), nil
	default:
		return models.SubmitterRef{}, fmt.Errorf("unknown submission type %q", assignment.SubmissionType)
	}
}

func (s *submissionService) checkNotSubmitted(ctx context.Context, assignmentID uint, ref models.SubmitterRef) error {
	var err error
	switch {
	case ref.UserID != nil:
		_, err = s.submissions.GetByAssignmentAndUser(ctx, assignmentID, *ref.UserID)
	case ref.GroupID != nil:
		_, err = s.submissions.GetByAssignmentAndGroup(ctx, assignmentID, *ref.GroupID)
	}

	if err == nil {
		return ErrAlreadySubmitted
	}
	if !repository.IsNotFound(err) {
		return err
	}

	return nil
}

// requireOwnership enforces the edit/delete rule: the submitting user for
// INDIVIDUAL work, the group's current leader for GROUP work.
func (s *submissionService) requireOwnership(ctx context.Context, submission models.Submission, callerID uint) error {
	switch {
	case submission.UserID != nil:
		if *submission.UserID != callerID {
			return ErrForbidden
		}
	case submission.GroupID != nil:
		member, err := s.groups.GetMember(ctx, *submission.GroupID, callerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrForbidden
			}
			return err
		}
		if member.Role != models.GroupRoleLeader {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}

	return nil
}

func (s *submissionService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return url, nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
