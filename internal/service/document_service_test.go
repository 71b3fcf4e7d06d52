package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classops-api/internal/models"
)

func newDocumentService(t *testing.T) (DocumentService, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	return NewDocumentService(env.assignments, env.submissions, env.classes, testLogger()), env
}

func TestDocumentServiceResolveAssignment(t *testing.T) {
	svc, env := newDocumentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	outsider := createUser(t, env.db, "mallory", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)

	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	require.NoError(t, env.db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("file_url", "https://files.example.com/brief.pdf").Error)

	doc, err := svc.Resolve(context.Background(), "assignment-1", teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/brief.pdf", doc.URL)

	// The legacy alias resolves to the same entity.
	doc, err = svc.Resolve(context.Background(), "classwork-1", teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "assignment", doc.Type)

	_, err = svc.Resolve(context.Background(), "assignment-1", outsider.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDocumentServiceResolveSubmission(t *testing.T) {
	svc, env := newDocumentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)

	bare := models.Submission{AssignmentID: assignment.ID, UserID: &sam.ID, Content: "no file"}
	require.NoError(t, env.db.Create(&bare).Error)

	_, err := svc.Resolve(context.Background(), "submission-1", teacher.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound, "an entity without a stored file has no document")

	require.NoError(t, env.db.Model(&models.Submission{}).Where("id = ?", bare.ID).
		Updates(map[string]interface{}{"file_url": "https://files.example.com/answer.pdf", "file_name": "answer.pdf"}).Error)

	doc, err := svc.Resolve(context.Background(), "submission-1", teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "answer.pdf", doc.FileName)
}

func TestDocumentServiceMalformedRefs(t *testing.T) {
	svc, env := newDocumentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)

	for _, ref := range []string{"", "assignment", "assignment-", "-1", "assignment-zero", "assignment-0", "user-1"} {
		_, err := svc.Resolve(context.Background(), ref, teacher.ID)
		require.ErrorIs(t, err, ErrBadDocumentRef, "ref %q", ref)
	}

	_, err := svc.Resolve(context.Background(), "assignment-9999", teacher.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}
