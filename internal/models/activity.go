package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable events triggered inside a class: assignment
// edits, submission activity, grading, membership changes.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ClassID    uint              `gorm:"not null;index" json:"class_id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
