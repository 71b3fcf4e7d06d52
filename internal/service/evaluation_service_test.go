package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/pkg/ai"
)

type stubEvaluator struct {
	result ai.EvaluationResult
	err    error
	input  ai.EvaluationInput
}

func (s *stubEvaluator) Evaluate(_ context.Context, input ai.EvaluationInput) (ai.EvaluationResult, error) {
	s.input = input
	return s.result, s.err
}

func newEvaluationService(t *testing.T, evaluator ai.Evaluator) (EvaluationService, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	svc := NewEvaluationService(env.evaluations, env.submissions, env.classes, testValidator(), evaluator, noopEvents(), testLogger())

	return svc, env
}

func seedSubmission(t *testing.T, env *testEnv, assignment models.Assignment, userID uint) models.Submission {
	t.Helper()

	submission := models.Submission{AssignmentID: assignment.ID, UserID: &userID, Content: "answer"}
	require.NoError(t, env.db.Create(&submission).Error)

	return submission
}

func score(v float64) *float64 { return &v }

func TestEvaluationServiceCreate(t *testing.T) {
	svc, env := newEvaluationService(t, nil)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	ta := createUser(t, env.db, "taylor", models.GlobalRoleStudent)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, ta.ID, class.ID, models.ClassRoleTA)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	_, err := svc.Create(context.Background(), submission.ID, sam.ID, dto.EvaluationCreateRequest{Score: score(90)})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), submission.ID, teacher.ID, dto.EvaluationCreateRequest{})
	require.ErrorIs(t, err, ErrEmptyEvaluation)

	evaluation, err := svc.Create(context.Background(), submission.ID, ta.ID, dto.EvaluationCreateRequest{Score: score(85), Feedback: "solid"})
	require.NoError(t, err)
	require.Equal(t, ta.ID, evaluation.EvaluatorID)
	require.False(t, evaluation.IsAI)

	// A second evaluation is a new entry, not a replacement.
	again, err := svc.Create(context.Background(), submission.ID, teacher.ID, dto.EvaluationCreateRequest{Score: score(70)})
	require.NoError(t, err)
	require.NotEqual(t, evaluation.ID, again.ID)
}

func TestEvaluationServiceUpdateAuthorOnly(t *testing.T) {
	svc, env := newEvaluationService(t, nil)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	ta := createUser(t, env.db, "taylor", models.GlobalRoleStudent)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, ta.ID, class.ID, models.ClassRoleTA)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	evaluation, err := svc.Create(context.Background(), submission.ID, ta.ID, dto.EvaluationCreateRequest{Score: score(60)})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), evaluation.ID, teacher.ID, dto.EvaluationUpdateRequest{Score: score(95)})
	require.ErrorIs(t, err, ErrForbidden)

	feedback := "revised after regrade"
	updated, err := svc.Update(context.Background(), evaluation.ID, ta.ID, dto.EvaluationUpdateRequest{Score: score(75), Feedback: &feedback})
	require.NoError(t, err)
	require.Equal(t, 75.0, *updated.Score)
	require.Equal(t, feedback, updated.Feedback)
}

func TestEvaluationServiceListVisibility(t *testing.T) {
	svc, env := newEvaluationService(t, nil)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	kim := createUser(t, env.db, "kim", models.GlobalRoleStudent)
	mallory := createUser(t, env.db, "mallory", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	enroll(t, env.db, kim.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	_, err := svc.Create(context.Background(), submission.ID, teacher.ID, dto.EvaluationCreateRequest{Score: score(88), Feedback: "good"})
	require.NoError(t, err)

	// Anyone enrolled in the class may read evaluations, owner or not.
	listed, err := svc.ListForSubmission(context.Background(), submission.ID, sam.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "prof", listed[0].EvaluatorName)

	listed, err = svc.ListForSubmission(context.Background(), submission.ID, kim.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// A user with no enrollment in the class is refused.
	_, err = svc.ListForSubmission(context.Background(), submission.ID, mallory.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEvaluationServicePreGrade(t *testing.T) {
	evaluator := &stubEvaluator{result: ai.EvaluationResult{Score: 72, Feedback: "decent structure"}}
	svc, env := newEvaluationService(t, evaluator)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	evaluation, err := svc.PreGrade(context.Background(), submission.ID, teacher.ID)
	require.NoError(t, err)
	require.True(t, evaluation.IsAI)
	require.Equal(t, 72.0, *evaluation.Score)
	require.Equal(t, "answer", evaluator.input.Content)

	// AI entries are immutable even for the requesting teacher.
	_, err = svc.Update(context.Background(), evaluation.ID, teacher.ID, dto.EvaluationUpdateRequest{Score: score(100)})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEvaluationServicePreGradeUnconfigured(t *testing.T) {
	svc, env := newEvaluationService(t, nil)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	_, err := svc.PreGrade(context.Background(), submission.ID, teacher.ID)
	require.ErrorIs(t, err, ErrAIUnavailable)
}

func TestEvaluationServicePreGradeProviderError(t *testing.T) {
	evaluator := &stubEvaluator{err: errors.New("model timeout")}
	svc, env := newEvaluationService(t, evaluator)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	assignment := seedAssignment(t, env, class, models.SubmissionTypeIndividual)
	submission := seedSubmission(t, env, assignment, sam.ID)

	_, err := svc.PreGrade(context.Background(), submission.ID, teacher.ID)
	require.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&models.Evaluation{}).Count(&count).Error)
	require.Zero(t, count)
}
