package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
	"github.com/noah-isme/classops-api/pkg/mailer"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// setupTestDB opens a private in-memory database per test so unique indexes
// and transactions behave like production without cross-test bleed.
func setupTestDB(t *testing.T) *gorm.DB {
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
		&models.ClassInvite{},
		&models.ActivityLog{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.GlobalRole) models.User {
	t.Helper()

	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func enroll(t *testing.T, db *gorm.DB, userID, classID uint, role models.ClassRole) {
	t.Helper()

	require.NoError(t, db.Create(&models.Enrollment{UserID: userID, ClassID: classID, Role: role}).Error)
}

func createClass(t *testing.T, db *gorm.DB, owner models.User) models.Class {
	t.Helper()

	class := models.Class{Title: "Systems Programming", OwnerID: owner.ID}
	require.NoError(t, db.Create(&class).Error)
	enroll(t, db, owner.ID, class.ID, models.ClassRoleTeacher)

	return class
}

// testEnv bundles the GORM-backed repositories the service tests run on.
type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	classes     repository.ClassRepository
	groups      repository.GroupRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	invites     repository.InviteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	return &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		classes:     repository.NewClassRepository(db),
		groups:      repository.NewGroupRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		evaluations: repository.NewEvaluationRepository(db),
		invites:     repository.NewInviteRepository(db),
	}
}

func noopEvents() EventPublisher {
	return NewEventPublisher(nil, testLogger())
}

func testActivity(db *gorm.DB) ActivityService {
	return NewActivityService(repository.NewActivityLogRepository(db), repository.NewClassRepository(db), testLogger())
}

// stubUploader records uploads and can be told to fail.
type stubUploader struct {
	url   string
	fail  bool
	calls int
}

func (u *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	u.calls++
	if u.fail {
		return "", errors.New("blob store unavailable")
	}
	if u.url != "" {
		return u.url, nil
	}
	return "https://files.example.com/" + name, nil
}

// recordingMailer captures outbound messages; failFor makes delivery to one
// address fail.
type recordingMailer struct {
	sent    []mailer.Message
	failFor string
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.failFor != "" && msg.ToEmail == m.failFor {
		return errors.New("smtp rejected")
	}
	m.sent = append(m.sent, msg)
	return nil
}
