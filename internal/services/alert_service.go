package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/models"
)

var (
	// ErrAlertNotFound is returned for unknown alert ids.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrAlertDismissed is returned when acknowledging a dismissed alert.
	ErrAlertDismissed = errors.New("alert already dismissed")
)

// Notifier escalates alerts externally. Delivery is fire-and-forget and has
// no bearing on alert correctness.
type Notifier interface {
	SendAlert(title, message string)
}

// AlertService manages the acknowledge/dismiss workflow over high and
// critical security events.
type AlertService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewAlertService returns an AlertService. The notifier may be nil.
func NewAlertService(db *gorm.DB, notifier Notifier) *AlertService {
	return &AlertService{db: db, notifier: notifier}
}

// Raise creates an alert for a high/critical event. Critical alerts are also
// escalated through the notifier.
func (s *AlertService) Raise(event models.SecurityEvent) {
	if !event.IsAlertable() {
		return
	}

	alert := models.Alert{
		UUID:          uuid.NewString(),
		SourceEventID: event.UUID,
		Title:         fmt.Sprintf("%s from %s", event.Action, event.SourceIP),
		Severity:      event.Severity,
	}
	if err := s.db.Create(&alert).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"source": "alerts",
			"event":  event.UUID,
		}).WithError(err).Warn("failed to create alert")
		return
	}

	if s.notifier != nil && event.Severity == models.SeverityCritical {
		s.notifier.SendAlert(alert.Title,
			fmt.Sprintf("Critical security event on %s: %s (source %s)", event.Resource, event.Action, event.SourceIP))
	}
}

// Acknowledge marks an alert as acknowledged by the admin. Re-acknowledging
// refreshes the timestamp; acknowledging a dismissed alert is rejected.
func (s *AlertService) Acknowledge(alertID, adminID string) (*models.Alert, error) {
	alert, err := s.get(alertID)
	if err != nil {
		return nil, err
	}
	if alert.Dismissed {
		return nil, ErrAlertDismissed
	}

	now := time.Now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = adminID
	alert.AcknowledgedAt = &now
	if err := s.db.Save(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

// Dismiss marks an alert as dismissed. Allowed from any prior state,
// including acknowledged, and is terminal.
func (s *AlertService) Dismiss(alertID, adminID string) (*models.Alert, error) {
	alert, err := s.get(alertID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	alert.Dismissed = true
	alert.DismissedBy = adminID
	alert.DismissedAt = &now
	if err := s.db.Save(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

// List returns alerts newest-first. With openOnly set, dismissed alerts are
// excluded.
func (s *AlertService) List(openOnly bool, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []models.Alert
	q := s.db.Order("created_at desc").Limit(limit)
	if openOnly {
		q = q.Where("dismissed = ?", false)
	}
	if err := q.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *AlertService) get(alertID string) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.Where("uuid = ?", alertID).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return &alert, nil
}
