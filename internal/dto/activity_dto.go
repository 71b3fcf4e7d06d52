package dto

import (
	"time"

	"github.com/noah-isme/classops-api/internal/models"
)

// ActivityResponse is one audit entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ClassID    uint                   `json:"class_id"`
	ActorID    uint                   `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse pages audit entries.
type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
	Total int64              `json:"total"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(model models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         model.ID,
		ClassID:    model.ClassID,
		ActorID:    model.ActorID,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}
