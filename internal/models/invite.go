package models

import "time"

// InviteStatus tracks the invite lifecycle. ACCEPTED is terminal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
)

// ClassInvite is a token-bound invitation for one email address to join one
// class. The token's unique index makes redemption race-safe; the (class_id,
// email, status) lookup keeps re-invites of a pending address idempotent.
type ClassInvite struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ClassID   uint         `gorm:"not null;index:idx_invite_class_email" json:"class_id"`
	Email     string       `gorm:"size:255;not null;index:idx_invite_class_email" json:"email"`
	Token     string       `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Status    InviteStatus `gorm:"size:16;not null;default:PENDING" json:"status"`
	InvitedBy uint         `gorm:"not null" json:"invited_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Class     Class        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Inviter   User         `gorm:"foreignKey:InvitedBy" json:"-"`
}
