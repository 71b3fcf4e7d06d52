package models

import (
	"fmt"
	"time"
)

// SubmitterRef identifies who a submission belongs to: exactly one of the
// two references is set, matching the assignment's submission type.
type SubmitterRef struct {
	UserID  *uint
	GroupID *uint
}

// IndividualSubmitter builds a reference to a single student.
func IndividualSubmitter(userID uint) SubmitterRef {
	return SubmitterRef{UserID: &userID}
}

// GroupSubmitter builds a reference to a group.
func GroupSubmitter(groupID uint) SubmitterRef {
	return SubmitterRef{GroupID: &groupID}
}

// Matches reports whether the reference shape agrees with the assignment type.
func (r SubmitterRef) Matches(t SubmissionType) bool {
	switch t {
	case SubmissionTypeIndividual:
		return r.UserID != nil && r.GroupID == nil
	case SubmissionTypeGroup:
		return r.GroupID != nil && r.UserID == nil
	default:
		return false
	}
}

// Submission is one piece of submitted work. The partial unique indexes on
// (assignment_id, user_id) and (assignment_id, group_id) are the authoritative
// duplicate-submission guards; precondition reads in the service are only a
// fast path for a friendlier error.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_user;uniqueIndex:idx_submission_group" json:"assignment_id"`
	UserID       *uint      `gorm:"uniqueIndex:idx_submission_user" json:"user_id,omitempty"`
	GroupID      *uint      `gorm:"uniqueIndex:idx_submission_group" json:"group_id,omitempty"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	FileName     string     `gorm:"size:255" json:"file_name"`
	SubmittedAt  time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// NewSubmission constructs a submission for the given assignment, validating
// the submitter reference against the assignment's type.
func NewSubmission(assignment Assignment, ref SubmitterRef) (Submission, error) {
	if !ref.Matches(assignment.SubmissionType) {
		return Submission{}, fmt.Errorf("submitter reference does not match %s assignment", assignment.SubmissionType)
	}

	return Submission{
		AssignmentID: assignment.ID,
		UserID:       ref.UserID,
		GroupID:      ref.GroupID,
	}, nil
}

// Submitter returns the submission's owner reference.
func (s Submission) Submitter() SubmitterRef {
	return SubmitterRef{UserID: s.UserID, GroupID: s.GroupID}
}
