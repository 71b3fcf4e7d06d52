package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
)

// SignupRequest describes the payload for creating an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=TEACHER STUDENT"`
}

// LoginRequest describes the payload for obtaining a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the serialized account representation.
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the bearer token and the account it identifies.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Email:     model.Email,
		Username:  model.Username,
		Role:      string(model.Role),
		CreatedAt: model.CreatedAt,
	}
}
