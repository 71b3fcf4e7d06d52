package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// EvaluationCreateRequest describes the payload for grading a submission.
// Score and feedback are both optional at this layer.
type EvaluationCreateRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback string   `json:"feedback"`
}

// EvaluationUpdateRequest is a partial patch applied by the original author.
type EvaluationUpdateRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback *string  `json:"feedback"`
}

// EvaluationResponse is the serialized representation returned to API clients.
type EvaluationResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	EvaluatorID  uint      `json:"evaluator_id"`
	Score        *float64  `json:"score"`
	Feedback     string    `json:"feedback"`
	IsAI         bool      `json:"is_ai"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EvaluationDetailResponse adds the evaluator's display name.
type EvaluationDetailResponse struct {
	EvaluationResponse
	EvaluatorName string `json:"evaluator_name"`
}

// NewEvaluationResponse converts a model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		EvaluatorID:  model.EvaluatorID,
		Score:        model.Score,
		Feedback:     model.Feedback,
		IsAI:         model.IsAI,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewEvaluationDetailResponseSlice converts repository rows into DTOs.
func NewEvaluationDetailResponseSlice(details []repository.EvaluationDetail) []EvaluationDetailResponse {
	responses := make([]EvaluationDetailResponse, 0, len(details))
	for _, detail := range details {
		responses = append(responses, EvaluationDetailResponse{
			EvaluationResponse: NewEvaluationResponse(detail.Evaluation),
			EvaluatorName:      detail.EvaluatorName,
		})
	}

	return responses
}
