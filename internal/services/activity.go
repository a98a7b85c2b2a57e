package services

import (
	"encoding/json"
	"time"

	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type ActivityService struct {
	db         *gorm.DB
	membership *MembershipService
	scheduler  *cron.Cron
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{
		db:         db,
		membership: NewMembershipService(db),
	}
}

// Record appends an activity row. Best-effort: failures are logged and
// never surface to the triggering operation.
func (s *ActivityService) Record(entityType string, entityID uint, action string, actorID uint, metadata interface{}) {
	var metaStr string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaStr = string(b)
		}
	}

	record := models.Activity{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Metadata:   metaStr,
	}
	if err := s.db.Create(&record).Error; err != nil {
		logger.Warn().Err(err).
			Str("entity_type", entityType).
			Uint("entity_id", entityID).
			Str("action", action).
			Msg("failed to record activity")
	}
}

// ListByTask returns a task's activity newest-first, for project members.
func (s *ActivityService) ListByTask(actorID, taskID uint) ([]models.Activity, error) {
	if _, _, err := s.membership.RequireMemberByTask(actorID, taskID); err != nil {
		return nil, err
	}

	var items []models.Activity
	err := s.db.
		Where("entity_type = ? AND entity_id = ?", "task", taskID).
		Preload("Actor").
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// StartCleanupScheduler runs a daily purge of activity rows older than
// retentionDays. A non-positive retention disables it.
func (s *ActivityService) StartCleanupScheduler(retentionDays int) {
	if retentionDays <= 0 {
		logger.Infof("[Activity] Retention cleanup disabled")
		return
	}

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("@daily", func() {
		s.cleanup(retentionDays)
	}); err != nil {
		logger.Errorf("[Activity] Failed to schedule cleanup: %v", err)
		return
	}
	s.scheduler.Start()
	logger.Infof("[Activity] Retention cleanup scheduled (keep %d days)", retentionDays)

	// One pass right away so long-stopped deployments catch up
	go s.cleanup(retentionDays)
}

// StopCleanupScheduler stops the retention scheduler if running.
func (s *ActivityService) StopCleanupScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *ActivityService) cleanup(retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.Activity{})
	if result.Error != nil {
		logger.Warnf("[Activity] Cleanup failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.Infof("[Activity] Cleaned up %d records older than %d days", result.RowsAffected, retentionDays)
	}
}
