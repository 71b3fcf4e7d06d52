package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description"`
}

// ClassResponse is the serialized class representation.
type ClassResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     uint      `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EnrolledClassResponse is a class annotated with the caller's role in it.
type EnrolledClassResponse struct {
	ClassResponse
	Role string `json:"role"`
}

// ClassMemberResponse is one enrolled user with their class role.
type ClassMemberResponse struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// NewClassResponse converts a model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	return ClassResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		OwnerID:     model.OwnerID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewEnrolledClassResponseSlice converts repository rows into DTOs.
func NewEnrolledClassResponseSlice(rows []repository.EnrolledClass) []EnrolledClassResponse {
	responses := make([]EnrolledClassResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, EnrolledClassResponse{
			ClassResponse: NewClassResponse(row.Class),
			Role:          string(row.Role),
		})
	}

	return responses
}

// NewClassMemberResponseSlice converts repository rows into DTOs.
func NewClassMemberResponseSlice(rows []repository.ClassMember) []ClassMemberResponse {
	responses := make([]ClassMemberResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, ClassMemberResponse{
			UserID:   row.UserID,
			Username: row.Username,
			Email:    row.Email,
			Role:     string(row.Role),
		})
	}

	return responses
}
