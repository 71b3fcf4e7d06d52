package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ClassID    uint
	ActorID    uint
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording audit entries. Recording
// is best-effort: failures are logged, not propagated, so a lost audit row
// never fails the mutation it describes.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry)
}

// ActivityService records and lists class audit entries.
type ActivityService interface {
	ActivityRecorder
	ListForClass(ctx context.Context, classID, callerID uint, filter repository.ActivityLogFilter) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo    repository.ActivityLogRepository
	classes repository.ClassRepository
	logger  zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, classes repository.ClassRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:    repo,
		classes: classes,
		logger:  logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	model := models.ActivityLog{
		ClassID:    entry.ClassID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("failed to persist activity log")
	}
}

func (s *activityService) ListForClass(ctx context.Context, classID, callerID uint, filter repository.ActivityLogFilter) (dto.ActivityListResponse, error) {
	role, err := s.classes.RoleOf(ctx, callerID, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ActivityListResponse{}, ErrForbidden
		}
		return dto.ActivityListResponse{}, err
	}

	if role != models.ClassRoleTeacher {
		return dto.ActivityListResponse{}, ErrForbidden
	}

	entries, total, err := s.repo.ListByClass(ctx, classID, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewActivityResponse(entry))
	}

	return dto.ActivityListResponse{Items: items, Total: total}, nil
}
