package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// ClassMember is an enrollment row joined with the member's display fields.
type ClassMember struct {
	UserID   uint             `json:"user_id"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	Role     models.ClassRole `json:"role"`
}

// EnrolledClass is a class joined with the caller's role in it.
type EnrolledClass struct {
	Class models.Class
	Role  models.ClassRole
}

// ClassRepository defines persistence operations for classes and enrollments.
type ClassRepository interface {
	CreateWithTeacher(ctx context.Context, class *models.Class, teacherID uint) error
	GetByID(ctx context.Context, id uint) (models.Class, error)
	RoleOf(ctx context.Context, userID, classID uint) (models.ClassRole, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	ListByUser(ctx context.Context, userID uint) ([]EnrolledClass, error)
	ListMembers(ctx context.Context, classID uint) ([]ClassMember, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

// CreateWithTeacher inserts the class and the creator's TEACHER enrollment as
// one transaction so a half-created class is never observable.
func (r *classRepository) CreateWithTeacher(ctx context.Context, class *models.Class, teacherID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(class).Error; err != nil {
			return err
		}

		enrollment := models.Enrollment{
			UserID:  teacherID,
			ClassID: class.ID,
			Role:    models.ClassRoleTeacher,
		}

		return tx.Create(&enrollment).Error
	})
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) RoleOf(ctx context.Context, userID, classID uint) (models.ClassRole, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND class_id = ?", userID, classID).
		First(&enrollment).Error; err != nil {
		return "", err
	}

	return enrollment.Role, nil
}

func (r *classRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *classRepository) ListByUser(ctx context.Context, userID uint) ([]EnrolledClass, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	classes := make([]EnrolledClass, 0, len(enrollments))
	for _, enrollment := range enrollments {
		classes = append(classes, EnrolledClass{Class: enrollment.Class, Role: enrollment.Role})
	}

	return classes, nil
}

func (r *classRepository) ListMembers(ctx context.Context, classID uint) ([]ClassMember, error) {
	var members []ClassMember
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollments.user_id, users.username, users.email, enrollments.role").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.class_id = ?", classID).
		Order("users.username ASC").
		Scan(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}
