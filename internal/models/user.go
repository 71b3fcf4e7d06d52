package models

import "time"

// GlobalRole is the account-level role chosen at signup. It gates class
// creation only; in-class authority comes from the Enrollment row.
type GlobalRole string

const (
	GlobalRoleTeacher GlobalRole = "TEACHER"
	GlobalRoleStudent GlobalRole = "STUDENT"
)

// Valid reports whether the role is one of the known global roles.
func (r GlobalRole) Valid() bool {
	return r == GlobalRoleTeacher || r == GlobalRoleStudent
}

// User represents an account holder.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         GlobalRole `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
