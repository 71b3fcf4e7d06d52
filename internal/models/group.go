package models

import "time"

// GroupRole distinguishes the single leader from regular members.
type GroupRole string

const (
	GroupRoleLeader GroupRole = "LEADER"
	GroupRoleMember GroupRole = "MEMBER"
)

// Group partitions a class's students for group-type assignments.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// GroupMember is the join between groups and users. At most one member per
// group holds GroupRoleLeader at any time; leader reassignment is performed
// as a single transaction in the repository.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
	Role      GroupRole `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Group     Group     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
