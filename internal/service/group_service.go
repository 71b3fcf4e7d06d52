package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ErrGroupNotFound indicates the referenced group does not exist.
var ErrGroupNotFound = errors.New("group not found")

// ErrNotAStudent indicates the target does not hold the STUDENT role in the class.
var ErrNotAStudent = errors.New("user is not a student of this class")

// ErrAlreadyGrouped indicates the target already belongs to a group in the class.
var ErrAlreadyGrouped = errors.New("user already belongs to a group in this class")

// ErrNotInGroup indicates the target is not a member of the group.
var ErrNotInGroup = errors.New("user is not a member of this group")

// GroupService manages group membership and leadership within a class.
type GroupService interface {
	Create(ctx context.Context, classID, callerID uint, payload dto.GroupCreateRequest) (dto.GroupResponse, error)
	AddMember(ctx context.Context, groupID, callerID, targetID uint) error
	AssignLeader(ctx context.Context, groupID, callerID, targetID uint) error
	RemoveMember(ctx context.Context, groupID, callerID, targetID uint) error
	Delete(ctx context.Context, groupID, callerID uint) error
	ListForClass(ctx context.Context, classID, callerID uint) ([]dto.GroupResponse, error)
	ListAvailableStudents(ctx context.Context, classID, callerID uint) ([]dto.ClassMemberResponse, error)
}

type groupService struct {
	groups    repository.GroupRepository
	classes   repository.ClassRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewGroupService constructs a GroupService instance.
func NewGroupService(groups repository.GroupRepository, classes repository.ClassRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) GroupService {
	return &groupService{
		groups:    groups,
		classes:   classes,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "group_service").Logger(),
	}
}

// requireClassTeacher resolves the caller's class role and demands TEACHER.
func (s *groupService) requireClassTeacher(ctx context.Context, callerID, classID uint) error {
	role, err := s.classes.RoleOf(ctx, callerID, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrForbidden
		}
		return err
	}

	if role != models.ClassRoleTeacher {
		return ErrForbidden
	}

	return nil
}

func (s *groupService) Create(ctx context.Context, classID, callerID uint, payload dto.GroupCreateRequest) (dto.GroupResponse, error) {
	if err := s.requireClassTeacher(ctx, callerID, classID); err != nil {
		return dto.GroupResponse{}, err
	}

	// Trim first so a whitespace-only name fails the required check.
	payload.Name = strings.TrimSpace(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group := models.Group{
		ClassID: classID,
		Name:    payload.Name,
	}

	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.logger.Info().Uint("group_id", group.ID).Uint("class_id", classID).Msg("group created")

	return dto.NewGroupResponse(repository.GroupDetail{Group: group}), nil
}

func (s *groupService) AddMember(ctx context.Context, groupID, callerID, targetID uint) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrGroupNotFound
		}
		return err
	}

	if err := s.requireClassTeacher(ctx, callerID, group.ClassID); err != nil {
		return err
	}

	targetRole, err := s.classes.RoleOf(ctx, targetID, group.ClassID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotAStudent
		}
		return err
	}
	if targetRole != models.ClassRoleStudent {
		return ErrNotAStudent
	}

	// Membership is exclusive across all groups of the class, not just this one.
	if _, err := s.groups.MembershipInClass(ctx, group.ClassID, targetID); err == nil {
		return ErrAlreadyGrouped
	} else if !repository.IsNotFound(err) {
		return err
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  targetID,
		Role:    models.GroupRoleMember,
	}

	if err := s.groups.AddMember(ctx, &member); err != nil {
		if repository.IsDuplicate(err) {
			return ErrAlreadyGrouped
		}
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    group.ClassID,
		ActorID:    callerID,
		Action:     "group.member_added",
		EntityType: "group",
		EntityID:   &groupID,
		Metadata:   map[string]interface{}{"user_id": targetID},
	})

	return nil
}

func (s *groupService) AssignLeader(ctx context.Context, groupID, callerID, targetID uint) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrGroupNotFound
		}
		return err
	}

	if err := s.requireClassTeacher(ctx, callerID, group.ClassID); err != nil {
		return err
	}

	if err := s.groups.AssignLeader(ctx, groupID, targetID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotInGroup
		}
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    group.ClassID,
		ActorID:    callerID,
		Action:     "group.leader_assigned",
		EntityType: "group",
		EntityID:   &groupID,
		Metadata:   map[string]interface{}{"user_id": targetID},
	})

	return nil
}

func (s *groupService) RemoveMember(ctx context.Context, groupID, callerID, targetID uint) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrGroupNotFound
		}
		return err
	}

	if err := s.requireClassTeacher(ctx, callerID, group.ClassID); err != nil {
		return err
	}

	if err := s.groups.RemoveMember(ctx, groupID, targetID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotInGroup
		}
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		ClassID:    group.ClassID,
		ActorID:    callerID,
		Action:     "group.member_removed",
		EntityType: "group",
		EntityID:   &groupID,
		Metadata:   map[string]interface{}{"user_id": targetID},
	})

	return nil
}

func (s *groupService) Delete(ctx context.Context, groupID, callerID uint) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrGroupNotFound
		}
		return err
	}

	if err := s.requireClassTeacher(ctx, callerID, group.ClassID); err != nil {
		return err
	}

	if err := s.groups.DeleteCascade(ctx, groupID); err != nil {
		if repository.IsNotFound(err) {
			return ErrGroupNotFound
		}
		return err
	}

	s.logger.Info().Uint("group_id", groupID).Msg("group deleted")

	return nil
}

func (s *groupService) ListForClass(ctx context.Context, classID, callerID uint) ([]dto.GroupResponse, error) {
	if _, err := s.classes.RoleOf(ctx, callerID, classID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	details, err := s.groups.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewGroupResponseSlice(details), nil
}

func (s *groupService) ListAvailableStudents(ctx context.Context, classID, callerID uint) ([]dto.ClassMemberResponse, error) {
	if err := s.requireClassTeacher(ctx, callerID, classID); err != nil {
		return nil, err
	}

	students, err := s.groups.ListUngroupedStudents(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassMemberResponseSlice(students), nil
}
