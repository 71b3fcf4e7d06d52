package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	ListByClass(ctx context.Context, classID uint) ([]models.Assignment, error)
	DeleteCascade(ctx context.Context, id uint) error
	ListDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]models.Assignment, error)
	MarkReminderSent(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) ListByClass(ctx context.Context, classID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("deadline ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// DeleteCascade removes the assignment's evaluations, then its submissions,
// then the assignment itself, in one transaction. Evaluations reference
// submissions, so the order matters.
func (r *assignmentRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id IN (?)", tx.
			Model(&models.Submission{}).
			Select("id").
			Where("assignment_id = ?", id)).
			Delete(&models.Evaluation{}).Error; err != nil {
			return err
		}

		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

// ListDueForReminder returns assignments whose deadline falls inside the
// reminder window and whose reminder has not been sent yet.
func (r *assignmentRepository) ListDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("reminder_sent = ?", false).
		Where("deadline > ? AND deadline <= ?", now, now.Add(window)).
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// MarkReminderSent flips the idempotency flag. It is set once, never reset.
func (r *assignmentRepository) MarkReminderSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("reminder_sent", true).Error
}
