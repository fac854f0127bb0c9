package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/models"
)

func setupEventTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.SecurityEvent{}, &models.Alert{})
	assert.NoError(t, err)

	return db
}

func TestEventService_RecordPersistsAsync(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, nil, 16)
	svc.Start()

	svc.Record(models.SecurityEvent{
		Type:     models.EventSuspiciousActivity,
		Severity: models.SeverityCritical,
		SourceIP: "1.2.3.4",
		Action:   "sql_injection_blocked",
		Blocked:  true,
		Details:  models.EventDetails{"pattern": "or_true"},
	})
	svc.Stop()

	events, err := svc.Recent(10)
	assert.NoError(t, err)
	if assert.Len(t, events, 1) {
		assert.NotEmpty(t, events[0].UUID)
		assert.True(t, events[0].Blocked)
		assert.Equal(t, "or_true", events[0].Details["pattern"])
	}
}

func TestEventService_RecentNewestFirstCapped(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, nil, 16)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := db.Create(&models.SecurityEvent{
			UUID:      fmt.Sprintf("ev-%d", i),
			Action:    "request_allowed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error
		assert.NoError(t, err)
	}

	events, err := svc.Recent(3)
	assert.NoError(t, err)
	if assert.Len(t, events, 3) {
		assert.Equal(t, "ev-4", events[0].UUID)
		assert.Equal(t, "ev-2", events[2].UUID)
	}
}

func TestEventService_CountsSince(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, nil, 16)

	now := time.Now()
	rows := []models.SecurityEvent{
		{UUID: "a", Severity: models.SeverityCritical, Blocked: true, CreatedAt: now},
		{UUID: "b", Severity: models.SeverityHigh, Blocked: true, CreatedAt: now},
		{UUID: "c", Severity: models.SeverityHigh, CreatedAt: now},
		{UUID: "d", Severity: models.SeverityLow, CreatedAt: now},
		// Outside the window, must not count.
		{UUID: "e", Severity: models.SeverityCritical, Blocked: true, CreatedAt: now.Add(-48 * time.Hour)},
	}
	for i := range rows {
		assert.NoError(t, db.Create(&rows[i]).Error)
	}

	counts, err := svc.CountsSince(now.Add(-24 * time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), counts.Critical)
	assert.Equal(t, int64(2), counts.High)
	assert.Equal(t, int64(2), counts.Blocked)
	assert.Equal(t, int64(4), counts.Total)
}

func TestEventService_RaisesAlertsForSevereEvents(t *testing.T) {
	db := setupEventTestDB(t)
	alerts := NewAlertService(db, nil)
	svc := NewEventService(db, alerts, 16)
	svc.Start()

	svc.Record(models.SecurityEvent{Severity: models.SeverityCritical, Action: "sql_injection_blocked", SourceIP: "1.2.3.4"})
	svc.Record(models.SecurityEvent{Severity: models.SeverityLow, Action: "request_allowed", SourceIP: "1.2.3.4"})
	svc.Stop()

	open, err := alerts.List(true, 10)
	assert.NoError(t, err)
	if assert.Len(t, open, 1) {
		assert.Equal(t, models.SeverityCritical, open[0].Severity)
	}
}

func TestEventService_OverflowDropsOldest(t *testing.T) {
	db := setupEventTestDB(t)
	// Writer not started: the queue fills up.
	svc := NewEventService(db, nil, 2)

	for i := 0; i < 5; i++ {
		svc.Record(models.SecurityEvent{UUID: fmt.Sprintf("ev-%d", i), Action: "request_allowed"})
	}

	svc.Start()
	svc.Stop()

	events, err := svc.Recent(10)
	assert.NoError(t, err)
	// Queue capacity 2: the two most recent survive.
	if assert.Len(t, events, 2) {
		uuids := []string{events[0].UUID, events[1].UUID}
		assert.Contains(t, uuids, "ev-4")
		assert.Contains(t, uuids, "ev-3")
	}
}
