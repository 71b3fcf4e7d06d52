package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
)

func newAssignmentService(t *testing.T) (AssignmentService, *stubUploader, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	uploader := &stubUploader{}
	svc := NewAssignmentService(env.assignments, env.submissions, env.classes, testValidator(), uploader, testActivity(env.db), testLogger())

	return svc, uploader, env
}

func TestAssignmentServiceCreateRequiresClassTeacher(t *testing.T) {
	svc, _, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)

	payload := dto.AssignmentCreateRequest{
		Title:          "Problem Set 1",
		SubmissionType: "INDIVIDUAL",
		Deadline:       time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}

	_, err := svc.Create(context.Background(), class.ID, sam.ID, payload, nil)
	require.ErrorIs(t, err, ErrForbidden)

	assignment, err := svc.Create(context.Background(), class.ID, teacher.ID, payload, nil)
	require.NoError(t, err)
	require.Equal(t, "INDIVIDUAL", assignment.SubmissionType)
}

func TestAssignmentServiceUpdateKeepsType(t *testing.T) {
	svc, _, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	class := createClass(t, env.db, teacher)

	created, err := svc.Create(context.Background(), class.ID, teacher.ID, dto.AssignmentCreateRequest{
		Title:          "Problem Set 1",
		SubmissionType: "GROUP",
		Deadline:       time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}, nil)
	require.NoError(t, err)

	title := "Problem Set 1 (revised)"
	updated, err := svc.Update(context.Background(), created.ID, teacher.ID, dto.AssignmentUpdateRequest{Title: &title}, nil)
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, "GROUP", updated.SubmissionType)
}

func TestAssignmentServiceListAnnotatesSubmitted(t *testing.T) {
	svc, _, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)

	done := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	pending := models.Assignment{
		ClassID:        class.ID,
		Title:          "Problem Set 2",
		SubmissionType: models.SubmissionTypeGroup,
		Deadline:       time.Now().Add(96 * time.Hour),
	}
	require.NoError(t, env.db.Create(&pending).Error)

	require.NoError(t, env.db.Create(&models.Submission{AssignmentID: done.ID, UserID: &sam.ID, Content: "x"}).Error)

	listed, err := svc.ListForClass(context.Background(), class.ID, sam.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	byID := make(map[uint]bool, len(listed))
	for _, item := range listed {
		byID[item.ID] = item.Submitted
	}
	require.True(t, byID[done.ID])
	require.False(t, byID[pending.ID])
}

func TestAssignmentServiceGroupSubmissionAnnotation(t *testing.T) {
	svc, _, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	kim := createUser(t, env.db, "kim", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	enroll(t, env.db, kim.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeGroup)

	group := models.Group{ClassID: class.ID, Name: "Alpha"}
	require.NoError(t, env.db.Create(&group).Error)
	require.NoError(t, env.db.Create(&models.GroupMember{GroupID: group.ID, UserID: sam.ID, Role: models.GroupRoleLeader}).Error)
	require.NoError(t, env.db.Create(&models.GroupMember{GroupID: group.ID, UserID: kim.ID, Role: models.GroupRoleMember}).Error)
	require.NoError(t, env.db.Create(&models.Submission{AssignmentID: assignment.ID, GroupID: &group.ID, Content: "x"}).Error)

	// The group's submission marks the assignment done for every member.
	listed, err := svc.ListForClass(context.Background(), class.ID, kim.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.True(t, listed[0].Submitted)
}

func TestAssignmentServiceDeleteCascades(t *testing.T) {
	svc, _, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)

	submission := models.Submission{AssignmentID: assignment.ID, UserID: &sam.ID, Content: "x"}
	require.NoError(t, env.db.Create(&submission).Error)
	require.NoError(t, env.db.Create(&models.Evaluation{SubmissionID: submission.ID, EvaluatorID: teacher.ID, Feedback: "ok"}).Error)

	require.NoError(t, svc.Delete(context.Background(), assignment.ID, teacher.ID))

	var submissions, evaluations int64
	require.NoError(t, env.db.Model(&models.Submission{}).Count(&submissions).Error)
	require.NoError(t, env.db.Model(&models.Evaluation{}).Count(&evaluations).Error)
	require.Zero(t, submissions)
	require.Zero(t, evaluations)

	require.ErrorIs(t, svc.Delete(context.Background(), assignment.ID, teacher.ID), ErrAssignmentNotFound)
}

func TestAssignmentServiceUploadBeforeCreate(t *testing.T) {
	svc, uploader, env := newAssignmentService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	class := createClass(t, env.db, teacher)

	uploader.fail = true
	file := makeFileHeader(t, "brief.txt", "assignment brief")

	_, err := svc.Create(context.Background(), class.ID, teacher.ID, dto.AssignmentCreateRequest{
		Title:          "Problem Set 1",
		SubmissionType: "INDIVIDUAL",
		Deadline:       time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}, file)
	require.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&models.Assignment{}).Count(&count).Error)
	require.Zero(t, count)
}
