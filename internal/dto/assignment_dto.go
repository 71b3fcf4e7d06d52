package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for posting an
// assignment. The optional file part is handled separately by the handler.
type AssignmentCreateRequest struct {
	Title          string `form:"title" json:"title" validate:"required,min=1,max=255"`
	Description    string `form:"description" json:"description"`
	SubmissionType string `form:"submission_type" json:"submission_type" validate:"required,oneof=INDIVIDUAL GROUP"`
	Deadline       string `form:"deadline" json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentUpdateRequest is a partial patch; absent fields keep their prior
// value. The submission type is fixed at creation and cannot be patched.
type AssignmentUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `form:"description" json:"description"`
	Deadline    *string `form:"deadline" json:"deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint      `json:"id"`
	ClassID        uint      `json:"class_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SubmissionType string    `json:"submission_type"`
	Deadline       time.Time `json:"deadline"`
	FileURL        string    `json:"file_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AnnotatedAssignmentResponse adds the caller's derived submission status.
type AnnotatedAssignmentResponse struct {
	AssignmentResponse
	Submitted bool `json:"submitted"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		ClassID:        model.ClassID,
		Title:          model.Title,
		Description:    model.Description,
		SubmissionType: string(model.SubmissionType),
		Deadline:       model.Deadline,
		FileURL:        model.FileURL,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}
