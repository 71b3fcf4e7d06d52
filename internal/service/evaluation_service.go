package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
	"github.com/noah-isme/classops-api/pkg/ai"
)

// ErrEvaluationNotFound indicates the referenced evaluation does not exist.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrEmptyEvaluation indicates neither a score nor feedback was provided.
var ErrEmptyEvaluation = errors.New("evaluation requires a score or feedback")

// ErrAIUnavailable indicates no AI evaluator is configured.
var ErrAIUnavailable = errors.New("ai evaluation is not configured")

// EvaluationService records grades and feedback on submissions. A submission
// can accumulate multiple evaluations over time; the newest one is treated as
// current by readers.
type EvaluationService interface {
	Create(ctx context.Context, submissionID, callerID uint, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	Update(ctx context.Context, evaluationID, callerID uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error)
	ListForSubmission(ctx context.Context, submissionID, callerID uint) ([]dto.EvaluationDetailResponse, error)
	PreGrade(ctx context.Context, submissionID, callerID uint) (dto.EvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	classes     repository.ClassRepository
	validator   *validator.Validate
	evaluator   ai.Evaluator
	events      EventPublisher
	logger      zerolog.Logger
}

// NewEvaluationService constructs an EvaluationService instance. The AI
// evaluator may be nil when no provider is configured.
func NewEvaluationService(evaluations repository.EvaluationRepository, submissions repository.SubmissionRepository, classes repository.ClassRepository, validate *validator.Validate, evaluator ai.Evaluator, events EventPublisher, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		submissions: submissions,
		classes:     classes,
		validator:   validate,
		evaluator:   evaluator,
		events:      events,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Create(ctx context.Context, submissionID, callerID uint, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	submission, err := s.requireEvaluator(ctx, submissionID, callerID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	if payload.Score == nil && payload.Feedback == "" {
		return dto.EvaluationResponse{}, ErrEmptyEvaluation
	}

	evaluation := models.Evaluation{
		SubmissionID: submission.ID,
		EvaluatorID:  callerID,
		Score:        payload.Score,
		Feedback:     payload.Feedback,
	}

	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.events.Publish(ctx, SubjectEvaluationCreated, evaluation)
	s.logger.Info().Uint("evaluation_id", evaluation.ID).Uint("submission_id", submission.ID).Msg("evaluation recorded")

	return dto.NewEvaluationResponse(evaluation), nil
}

// Update applies a partial patch. Only the original author may edit, and AI
// evaluations are immutable; a teacher overrides one by adding their own.
func (s *evaluationService) Update(ctx context.Context, evaluationID, callerID uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if evaluation.EvaluatorID != callerID || evaluation.IsAI {
		return dto.EvaluationResponse{}, ErrForbidden
	}

	if payload.Score != nil {
		evaluation.Score = payload.Score
	}
	if payload.Feedback != nil {
		evaluation.Feedback = *payload.Feedback
	}

	if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.logger.Info().Uint("evaluation_id", evaluation.ID).Msg("evaluation updated")

	return dto.NewEvaluationResponse(evaluation), nil
}

// ListForSubmission returns all evaluations, newest first. Readable by any
// caller enrolled in the submission's class.
func (s *evaluationService) ListForSubmission(ctx context.Context, submissionID, callerID uint) ([]dto.EvaluationDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if _, err := s.classes.RoleOf(ctx, callerID, submission.Assignment.ClassID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	details, err := s.evaluations.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewEvaluationDetailResponseSlice(details), nil
}

// PreGrade asks the configured AI evaluator for a provisional grade and
// records it flagged as AI-generated, attributed to the requesting caller.
func (s *evaluationService) PreGrade(ctx context.Context, submissionID, callerID uint) (dto.EvaluationResponse, error) {
	if s.evaluator == nil {
		return dto.EvaluationResponse{}, ErrAIUnavailable
	}

	submission, err := s.requireEvaluator(ctx, submissionID, callerID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	result, err := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		AssignmentTitle: submission.Assignment.Title,
		Description:     submission.Assignment.Description,
		Content:         submission.Content,
		FileURL:         submission.FileURL,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("ai pre-grade failed")
		return dto.EvaluationResponse{}, err
	}

	evaluation := models.Evaluation{
		SubmissionID: submission.ID,
		EvaluatorID:  callerID,
		Score:        &result.Score,
		Feedback:     result.Feedback,
		IsAI:         true,
	}

	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.events.Publish(ctx, SubjectEvaluationCreated, evaluation)
	s.logger.Info().Uint("evaluation_id", evaluation.ID).Uint("submission_id", submission.ID).Msg("ai pre-grade recorded")

	return dto.NewEvaluationResponse(evaluation), nil
}

// requireEvaluator loads the submission and demands a class role that may
// grade it.
func (s *evaluationService) requireEvaluator(ctx context.Context, submissionID, callerID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	role, err := s.classes.RoleOf(ctx, callerID, submission.Assignment.ClassID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Submission{}, ErrForbidden
		}
		return models.Submission{}, err
	}
	if !role.CanEvaluate() {
		return models.Submission{}, ErrForbidden
	}

	return submission, nil
}
