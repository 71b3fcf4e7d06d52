package models

import "time"

// SubmissionType fixes, at creation time, whether an assignment collects
// individual or group submissions. It never changes afterwards.
type SubmissionType string

const (
	SubmissionTypeIndividual SubmissionType = "INDIVIDUAL"
	SubmissionTypeGroup      SubmissionType = "GROUP"
)

// Valid reports whether the value is a known submission type.
func (t SubmissionType) Valid() bool {
	return t == SubmissionTypeIndividual || t == SubmissionTypeGroup
}

// Assignment represents a piece of classwork posted to a class.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ClassID        uint           `gorm:"not null;index" json:"class_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	SubmissionType SubmissionType `gorm:"size:16;not null" json:"submission_type"`
	Deadline       time.Time      `gorm:"not null" json:"deadline"`
	FileURL        string         `gorm:"size:512" json:"file_url"`
	ReminderSent   bool           `gorm:"not null;default:false" json:"reminder_sent"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Class          Class          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}
