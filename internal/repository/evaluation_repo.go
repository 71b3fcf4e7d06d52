package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// EvaluationDetail joins an evaluation with the evaluator's display name.
type EvaluationDetail struct {
	Evaluation    models.Evaluation
	EvaluatorName string
}

// EvaluationRepository defines persistence operations for evaluations.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	Update(ctx context.Context, evaluation *models.Evaluation) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]EvaluationDetail, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates a GORM-backed repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).First(&evaluation, id).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}

func (r *evaluationRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]EvaluationDetail, error) {
	var evaluations []models.Evaluation
	if err := r.db.WithContext(ctx).
		Preload("Evaluator").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}

	details := make([]EvaluationDetail, 0, len(evaluations))
	for _, evaluation := range evaluations {
		details = append(details, EvaluationDetail{
			Evaluation:    evaluation,
			EvaluatorName: evaluation.Evaluator.Username,
		})
	}

	return details, nil
}
