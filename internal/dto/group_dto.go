package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/repository"
)

// GroupCreateRequest describes the payload for creating a group.
type GroupCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// GroupMemberRequest names the student a membership mutation targets.
type GroupMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// GroupMemberResponse is one member row with display name.
type GroupMemberResponse struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GroupResponse is the serialized group representation with its members.
type GroupResponse struct {
	ID        uint                  `json:"id"`
	ClassID   uint                  `json:"class_id"`
	Name      string                `json:"name"`
	CreatedAt time.Time             `json:"created_at"`
	Members   []GroupMemberResponse `json:"members"`
}

// NewGroupResponse converts a repository detail row into a DTO.
func NewGroupResponse(detail repository.GroupDetail) GroupResponse {
	members := make([]GroupMemberResponse, 0, len(detail.Members))
	for _, member := range detail.Members {
		members = append(members, GroupMemberResponse{
			UserID:   member.UserID,
			Username: member.Username,
			Role:     string(member.Role),
		})
	}

	return GroupResponse{
		ID:        detail.Group.ID,
		ClassID:   detail.Group.ClassID,
		Name:      detail.Group.Name,
		CreatedAt: detail.Group.CreatedAt,
		Members:   members,
	}
}

// NewGroupResponseSlice converts repository rows into DTOs.
func NewGroupResponseSlice(details []repository.GroupDetail) []GroupResponse {
	responses := make([]GroupResponse, 0, len(details))
	for _, detail := range details {
		responses = append(responses, NewGroupResponse(detail))
	}

	return responses
}
