package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// InviteRepository defines persistence operations for class invites.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.ClassInvite) error
	GetByToken(ctx context.Context, token string) (models.ClassInvite, error)
	FindPending(ctx context.Context, classID uint, email string) (models.ClassInvite, error)
	Accept(ctx context.Context, inviteID uint, enrollment *models.Enrollment) error
	MarkAccepted(ctx context.Context, inviteID uint) error
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository instantiates a GORM-backed repository.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.ClassInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (models.ClassInvite, error) {
	var invite models.ClassInvite
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Inviter").
		Where("token = ?", token).
		First(&invite).Error; err != nil {
		return models.ClassInvite{}, err
	}

	return invite, nil
}

func (r *inviteRepository) FindPending(ctx context.Context, classID uint, email string) (models.ClassInvite, error) {
	var invite models.ClassInvite
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND email = ? AND status = ?", classID, email, models.InviteStatusPending).
		First(&invite).Error; err != nil {
		return models.ClassInvite{}, err
	}

	return invite, nil
}

// Accept creates the enrollment and flips the invite to ACCEPTED in one
// transaction; both succeed or neither does.
func (r *inviteRepository) Accept(ctx context.Context, inviteID uint, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}

		return tx.Model(&models.ClassInvite{}).
			Where("id = ?", inviteID).
			Update("status", models.InviteStatusAccepted).Error
	})
}

// MarkAccepted flips the status without creating an enrollment, for the edge
// case where the redeemer already joined the class by another path.
func (r *inviteRepository) MarkAccepted(ctx context.Context, inviteID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ClassInvite{}).
		Where("id = ?", inviteID).
		Update("status", models.InviteStatusAccepted).Error
}
