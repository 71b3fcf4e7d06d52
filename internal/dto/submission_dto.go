package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// SubmissionCreateRequest describes the multipart payload for submitting
// work. Content and file are both optional individually, but the service
// requires at least one.
type SubmissionCreateRequest struct {
	Content string `form:"content" json:"content"`
}

// SubmissionUpdateRequest replaces the submission content.
type SubmissionUpdateRequest struct {
	Content string `form:"content" json:"content"`
}

// SubmissionResponse is the serialized representation returned to API clients.
type SubmissionResponse struct {
	ID           uint      `json:"id"`
	AssignmentID uint      `json:"assignment_id"`
	UserID       *uint     `json:"user_id,omitempty"`
	GroupID      *uint     `json:"group_id,omitempty"`
	Content      string    `json:"content"`
	FileURL      string    `json:"file_url"`
	FileName     string    `json:"file_name"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmissionDetailResponse adds the submitter display name and the latest
// evaluation for the teacher-facing listing.
type SubmissionDetailResponse struct {
	SubmissionResponse
	SubmitterName string              `json:"submitter_name"`
	Latest        *EvaluationResponse `json:"latest_evaluation,omitempty"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		UserID:       model.UserID,
		GroupID:      model.GroupID,
		Content:      model.Content,
		FileURL:      model.FileURL,
		FileName:     model.FileName,
		SubmittedAt:  model.SubmittedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewSubmissionDetailResponseSlice converts repository rows into DTOs.
func NewSubmissionDetailResponseSlice(details []repository.SubmissionDetail) []SubmissionDetailResponse {
	responses := make([]SubmissionDetailResponse, 0, len(details))
	for _, detail := range details {
		response := SubmissionDetailResponse{
			SubmissionResponse: NewSubmissionResponse(detail.Submission),
			SubmitterName:      detail.SubmitterName,
		}
		if detail.Latest != nil {
			latest := NewEvaluationResponse(*detail.Latest)
			response.Latest = &latest
		}
		responses = append(responses, response)
	}

	return responses
}
