package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

// SubmissionDetail pairs a submission with its submitter display name and
// the most recent evaluation, for the teacher-facing listing.
type SubmissionDetail struct {
	Submission    models.Submission
	SubmitterName string
	Latest        *models.Evaluation
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, id uint) error
	GetByAssignmentAndUser(ctx context.Context, assignmentID, userID uint) (models.Submission, error)
	GetByAssignmentAndGroup(ctx context.Context, assignmentID, groupID uint) (models.Submission, error)
	SubmittedAssignmentIDs(ctx context.Context, classID, userID uint) (map[uint]bool, error)
	ListForAssignment(ctx context.Context, assignmentID uint, latestFirst bool) ([]SubmissionDetail, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("Assignment").First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *submissionRepository) GetByAssignmentAndUser(ctx context.Context, assignmentID, userID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndGroup(ctx context.Context, assignmentID, groupID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND group_id = ?", assignmentID, groupID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// SubmittedAssignmentIDs resolves which of the class's assignments already
// carry a submission from the user, either directly or through any group the
// user is a member of.
func (r *submissionRepository) SubmittedAssignmentIDs(ctx context.Context, classID, userID uint) (map[uint]bool, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("submissions.assignment_id").
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("assignments.class_id = ?", classID).
		Where("submissions.user_id = ? OR submissions.group_id IN (?)", userID, r.db.
			Model(&models.GroupMember{}).
			Select("group_members.group_id").
			Joins("JOIN groups ON groups.id = group_members.group_id").
			Where("groups.class_id = ? AND group_members.user_id = ?", classID, userID)).
		Scan(&ids).Error; err != nil {
		return nil, err
	}

	submitted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		submitted[id] = true
	}

	return submitted, nil
}

func (r *submissionRepository) ListForAssignment(ctx context.Context, assignmentID uint, latestFirst bool) ([]SubmissionDetail, error) {
	order := "submitted_at DESC"
	if !latestFirst {
		order = "submitted_at ASC"
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order(order).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	details := make([]SubmissionDetail, 0, len(submissions))
	for _, submission := range submissions {
		detail := SubmissionDetail{Submission: submission}

		name, err := r.submitterName(ctx, submission)
		if err != nil {
			return nil, err
		}
		detail.SubmitterName = name

		var latest models.Evaluation
		err = r.db.WithContext(ctx).
			Where("submission_id = ?", submission.ID).
			Order("created_at DESC").
			First(&latest).Error
		switch {
		case err == nil:
			detail.Latest = &latest
		case errors.Is(err, gorm.ErrRecordNotFound):
			// ungraded submission
		default:
			return nil, err
		}

		details = append(details, detail)
	}

	return details, nil
}

func (r *submissionRepository) submitterName(ctx context.Context, submission models.Submission) (string, error) {
	if submission.UserID != nil {
		var user models.User
		if err := r.db.WithContext(ctx).First(&user, *submission.UserID).Error; err != nil {
			return "", err
		}
		return user.Username, nil
	}

	if submission.GroupID != nil {
		var group models.Group
		if err := r.db.WithContext(ctx).First(&group, *submission.GroupID).Error; err != nil {
			return "", err
		}
		return group.Name, nil
	}

	return "", nil
}
