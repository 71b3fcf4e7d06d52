package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
	))

	return db
}

func TestSubmissionRepositoryUniquePerSubmitter(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	user := models.User{Email: "sam@example.com", Username: "sam", PasswordHash: "x", Role: models.GlobalRoleStudent}
	require.NoError(t, db.Create(&user).Error)
	class := models.Class{Title: "Algorithms", OwnerID: user.ID}
	require.NoError(t, db.Create(&class).Error)
	assignment := models.Assignment{ClassID: class.ID, Title: "PS1", SubmissionType: models.SubmissionTypeIndividual, Deadline: time.Now().Add(24 * time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)
	group := models.Group{ClassID: class.ID, Name: "Alpha"}
	require.NoError(t, db.Create(&group).Error)

	require.NoError(t, repo.Create(ctx, &models.Submission{AssignmentID: assignment.ID, UserID: &user.ID, Content: "first"}))

	// The database is the authority on one-submission-per-submitter, so a
	// racing second insert surfaces as a duplicate key error.
	err := repo.Create(ctx, &models.Submission{AssignmentID: assignment.ID, UserID: &user.ID, Content: "second"})
	require.True(t, IsDuplicate(err))

	require.NoError(t, repo.Create(ctx, &models.Submission{AssignmentID: assignment.ID, GroupID: &group.ID, Content: "group answer"}))
	err = repo.Create(ctx, &models.Submission{AssignmentID: assignment.ID, GroupID: &group.ID, Content: "again"})
	require.True(t, IsDuplicate(err))
}

func TestSubmissionRepositoryDeleteFreesSlot(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	user := models.User{Email: "sam@example.com", Username: "sam", PasswordHash: "x", Role: models.GlobalRoleStudent}
	require.NoError(t, db.Create(&user).Error)
	class := models.Class{Title: "Algorithms", OwnerID: user.ID}
	require.NoError(t, db.Create(&class).Error)
	assignment := models.Assignment{ClassID: class.ID, Title: "PS1", SubmissionType: models.SubmissionTypeIndividual, Deadline: time.Now().Add(24 * time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)

	first := models.Submission{AssignmentID: assignment.ID, UserID: &user.ID, Content: "first"}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Delete(ctx, first.ID))

	require.NoError(t, repo.Create(ctx, &models.Submission{AssignmentID: assignment.ID, UserID: &user.ID, Content: "fresh"}))

	require.ErrorIs(t, repo.Delete(ctx, 9999), gorm.ErrRecordNotFound)
}
