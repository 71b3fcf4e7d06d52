package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// GroupDetail is a group together with its member rows and display names.
type GroupDetail struct {
	Group   models.Group
	Members []GroupMemberDetail
}

// GroupMemberDetail joins a membership row with the member's username.
type GroupMemberDetail struct {
	UserID   uint             `json:"user_id"`
	Username string           `json:"username"`
	Role     models.GroupRole `json:"role"`
}

// GroupRepository defines persistence operations for groups and memberships.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (models.Group, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, userID uint) (models.GroupMember, error)
	MembershipInClass(ctx context.Context, classID, userID uint) (models.GroupMember, error)
	AssignLeader(ctx context.Context, groupID, userID uint) error
	RemoveMember(ctx context.Context, groupID, userID uint) error
	ListByClass(ctx context.Context, classID uint) ([]GroupDetail, error)
	ListUngroupedStudents(ctx context.Context, classID uint) ([]ClassMember, error)
	DeleteCascade(ctx context.Context, groupID uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates a GORM-backed repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *groupRepository) GetMember(ctx context.Context, groupID, userID uint) (models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		return models.GroupMember{}, err
	}

	return member, nil
}

// MembershipInClass returns the user's membership in whichever group of the
// class they belong to. A student belongs to at most one group per class.
func (r *groupRepository) MembershipInClass(ctx context.Context, classID, userID uint) (models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("groups.class_id = ? AND group_members.user_id = ?", classID, userID).
		First(&member).Error; err != nil {
		return models.GroupMember{}, err
	}

	return member, nil
}

// AssignLeader demotes every member of the group and promotes the target in a
// single transaction, so no concurrent read observes zero or two leaders.
func (r *groupRepository) AssignLeader(ctx context.Context, groupID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ?", groupID).
			Update("role", models.GroupRoleMember).Error; err != nil {
			return err
		}

		return tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Update("role", models.GroupRoleLeader).Error
	})
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *groupRepository) ListByClass(ctx context.Context, classID uint) ([]GroupDetail, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}

	details := make([]GroupDetail, 0, len(groups))
	for _, group := range groups {
		var members []GroupMemberDetail
		if err := r.db.WithContext(ctx).
			Model(&models.GroupMember{}).
			Select("group_members.user_id, users.username, group_members.role").
			Joins("JOIN users ON users.id = group_members.user_id").
			Where("group_members.group_id = ?", group.ID).
			Order("users.username ASC").
			Scan(&members).Error; err != nil {
			return nil, err
		}

		details = append(details, GroupDetail{Group: group, Members: members})
	}

	return details, nil
}

// ListUngroupedStudents returns STUDENT-role enrollees of the class that are
// members of no group within that class.
func (r *groupRepository) ListUngroupedStudents(ctx context.Context, classID uint) ([]ClassMember, error) {
	var students []ClassMember
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollments.user_id, users.username, users.email, enrollments.role").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.class_id = ? AND enrollments.role = ?", classID, models.ClassRoleStudent).
		Where("enrollments.user_id NOT IN (?)", r.db.
			Model(&models.GroupMember{}).
			Select("group_members.user_id").
			Joins("JOIN groups ON groups.id = group_members.group_id").
			Where("groups.class_id = ?", classID)).
		Order("users.username ASC").
		Scan(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

// DeleteCascade removes the group and its membership rows in one transaction,
// mirroring the assignment cascade-delete pattern.
func (r *groupRepository) DeleteCascade(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Group{}, groupID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
