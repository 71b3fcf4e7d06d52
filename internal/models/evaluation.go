package models

import "time"

// Evaluation is a score/feedback entry attached to a submission. A submission
// may accumulate several evaluations (an AI pre-grade plus teacher overrides);
// consumers surface the newest one. Only the original evaluator may edit.
type Evaluation struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;index" json:"submission_id"`
	EvaluatorID  uint       `gorm:"not null" json:"evaluator_id"`
	Score        *float64   `json:"score"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	IsAI         bool       `gorm:"not null;default:false" json:"is_ai"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Evaluator    User       `gorm:"foreignKey:EvaluatorID" json:"-"`
}
