package services

import (
	"log"

	"gorm.io/gorm"

	"jrg-backend/shared/database/models"
)

// ActivityLogger is the audit surface handlers write to.
type ActivityLogger interface {
	Log(userID *uint, activityType, description, ip, userAgent string, metadata models.JSONMap)
	LogSecurity(activityType, formID, ip, userAgent string, metadata models.JSONMap)
}

// ActivityService appends to the append-only activity log. Entries are
// written and listed, never mutated. Security rejections are additionally
// pushed to the admin event feed when a hub is attached.
type ActivityService struct {
	db     *gorm.DB
	events *EventHub
}

func NewActivityService(db *gorm.DB, events *EventHub) *ActivityService {
	return &ActivityService{db: db, events: events}
}

// Log records an activity entry. Logging is observability, not control
// flow: failures are reported to the server log and swallowed so they can
// never block the request that triggered them.
func (s *ActivityService) Log(userID *uint, activityType, description, ip, userAgent string, metadata models.JSONMap) {
	entry := models.ActivityLog{
		Type:        activityType,
		Description: description,
		UserID:      userID,
		IPAddress:   ip,
		UserAgent:   userAgent,
		Metadata:    metadata,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("❌ Failed to write activity log (%s): %v", activityType, err)
	}
}

// LogSecurity records a security rejection with the form it happened on.
func (s *ActivityService) LogSecurity(activityType, formID, ip, userAgent string, metadata models.JSONMap) {
	if metadata == nil {
		metadata = models.JSONMap{}
	}
	metadata["form_id"] = formID
	s.Log(nil, activityType, "Security check rejected request", ip, userAgent, metadata)

	if s.events != nil {
		s.events.Publish(EventSecurityRejection, map[string]interface{}{
			"activity_type": activityType,
			"form_id":       formID,
			"ip":            ip,
		})
	}
}
