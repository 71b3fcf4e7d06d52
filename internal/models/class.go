package models

import "time"

// ClassRole is a user's authorization level within a single class.
type ClassRole string

const (
	ClassRoleTeacher ClassRole = "TEACHER"
	ClassRoleStudent ClassRole = "STUDENT"
	ClassRoleTA      ClassRole = "TA"
)

// CanEvaluate reports whether the role may grade submissions.
func (r ClassRole) CanEvaluate() bool {
	return r == ClassRoleTeacher || r == ClassRoleTA
}

// Class represents a course taught by a teacher.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"not null" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enrollment binds a user to a class with a class-scoped role. It is the
// sole authorization oracle for class-scoped operations; the unique index
// on (user_id, class_id) is the authoritative duplicate-enrollment guard.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_class" json:"user_id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_class" json:"class_id"`
	Role      ClassRole `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
