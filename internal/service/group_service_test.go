package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
)

func newGroupService(t *testing.T) (GroupService, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	return NewGroupService(env.groups, env.classes, testValidator(), testActivity(env.db), testLogger()), env
}

func seedGroup(t *testing.T, env *testEnv, class models.Class, name string) models.Group {
	t.Helper()

	group := models.Group{ClassID: class.ID, Name: name}
	require.NoError(t, env.db.Create(&group).Error)

	return group
}

func TestGroupServiceCreateRequiresClassTeacher(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	student := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, student.ID, class.ID, models.ClassRoleStudent)

	_, err := svc.Create(context.Background(), class.ID, student.ID, dto.GroupCreateRequest{Name: "Alpha"})
	require.ErrorIs(t, err, ErrForbidden)

	group, err := svc.Create(context.Background(), class.ID, teacher.ID, dto.GroupCreateRequest{Name: "Alpha"})
	require.NoError(t, err)
	require.Equal(t, "Alpha", group.Name)
}

func TestGroupServiceCreateRejectsBlankName(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	class := createClass(t, env.db, teacher)

	_, err := svc.Create(context.Background(), class.ID, teacher.ID, dto.GroupCreateRequest{Name: "   "})
	require.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&models.Group{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGroupServiceAddMemberRules(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	kim := createUser(t, env.db, "kim", models.GlobalRoleStudent)
	outsider := createUser(t, env.db, "mallory", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	enroll(t, env.db, kim.ID, class.ID, models.ClassRoleStudent)

	alpha := seedGroup(t, env, class, "Alpha")
	beta := seedGroup(t, env, class, "Beta")

	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))

	// Students cannot manage membership.
	require.ErrorIs(t, svc.AddMember(context.Background(), alpha.ID, sam.ID, kim.ID), ErrForbidden)

	// Only enrolled students qualify; the teacher's own enrollment does not.
	require.ErrorIs(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, outsider.ID), ErrNotAStudent)
	require.ErrorIs(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, teacher.ID), ErrNotAStudent)

	// One group per class, even a different one.
	require.ErrorIs(t, svc.AddMember(context.Background(), beta.ID, teacher.ID, sam.ID), ErrAlreadyGrouped)
	require.ErrorIs(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID), ErrAlreadyGrouped)
}

func TestGroupServiceAssignLeaderDemotesPrevious(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	kim := createUser(t, env.db, "kim", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	enroll(t, env.db, kim.ID, class.ID, models.ClassRoleStudent)

	alpha := seedGroup(t, env, class, "Alpha")
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, kim.ID))

	require.NoError(t, svc.AssignLeader(context.Background(), alpha.ID, teacher.ID, sam.ID))
	require.NoError(t, svc.AssignLeader(context.Background(), alpha.ID, teacher.ID, kim.ID))

	var leaders []models.GroupMember
	require.NoError(t, env.db.Where("group_id = ? AND role = ?", alpha.ID, models.GroupRoleLeader).Find(&leaders).Error)
	require.Len(t, leaders, 1, "a group holds at most one leader")
	require.Equal(t, kim.ID, leaders[0].UserID)

	require.ErrorIs(t, svc.AssignLeader(context.Background(), alpha.ID, teacher.ID, teacher.ID), ErrNotInGroup)
}

func TestGroupServiceRemoveMember(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)

	alpha := seedGroup(t, env, class, "Alpha")
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))

	require.NoError(t, svc.RemoveMember(context.Background(), alpha.ID, teacher.ID, sam.ID))
	require.ErrorIs(t, svc.RemoveMember(context.Background(), alpha.ID, teacher.ID, sam.ID), ErrNotInGroup)

	// Removed students become groupable again.
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))
}

func TestGroupServiceDeleteCascadesMembers(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)

	alpha := seedGroup(t, env, class, "Alpha")
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))

	require.NoError(t, svc.Delete(context.Background(), alpha.ID, teacher.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.GroupMember{}).Where("group_id = ?", alpha.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Delete(context.Background(), alpha.ID, teacher.ID), ErrGroupNotFound)
}

func TestGroupServiceListAvailableStudents(t *testing.T) {
	svc, env := newGroupService(t)
	teacher := createUser(t, env.db, "prof", models.GlobalRoleTeacher)
	sam := createUser(t, env.db, "sam", models.GlobalRoleStudent)
	kim := createUser(t, env.db, "kim", models.GlobalRoleStudent)
	class := createClass(t, env.db, teacher)
	enroll(t, env.db, sam.ID, class.ID, models.ClassRoleStudent)
	enroll(t, env.db, kim.ID, class.ID, models.ClassRoleStudent)

	alpha := seedGroup(t, env, class, "Alpha")
	require.NoError(t, svc.AddMember(context.Background(), alpha.ID, teacher.ID, sam.ID))

	available, err := svc.ListAvailableStudents(context.Background(), class.ID, teacher.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, kim.ID, available[0].UserID)
}
