package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/models"
)

func TestSecurityScore(t *testing.T) {
	clean := ScoreInput{Compliant: true, AvgConsentRate: 80}
	assert.Equal(t, 100, SecurityScore(clean))

	twoCritical := clean
	twoCritical.CriticalCount = 2
	assert.Equal(t, 80, SecurityScore(twoCritical))

	mixed := ScoreInput{
		CriticalCount:     1,
		HighCount:         2,
		BlockedEventCount: 3,
		Compliant:         false,
		AvgConsentRate:    40,
	}
	// 100 - 10 - 10 - 6 - 20 - 15
	assert.Equal(t, 39, SecurityScore(mixed))

	floor := ScoreInput{CriticalCount: 50}
	assert.Equal(t, 0, SecurityScore(floor), "score clamps at zero")
}

func TestThreatLevel(t *testing.T) {
	assert.Equal(t, "critical", ThreatLevel(1, 0, 0))
	assert.Equal(t, "critical", ThreatLevel(1, 100, 100))
	assert.Equal(t, "high", ThreatLevel(0, 6, 0))
	assert.Equal(t, "low", ThreatLevel(0, 5, 0))
	assert.Equal(t, "medium", ThreatLevel(0, 0, 11))
	assert.Equal(t, "low", ThreatLevel(0, 0, 10))
}

func TestRecommendations_FixedOrder(t *testing.T) {
	in := ScoreInput{
		CriticalCount:   1,
		BlockedIPCount:  11,
		Compliant:       false,
		PendingRequests: 6,
		AvgConsentRate:  60,
	}

	recs := Recommendations(in)
	assert.Equal(t, []string{
		"Investigate critical security events immediately",
		"Review blocked IPs and consider tightening rate limits",
		"Clean up expired data to restore compliance",
		"Process pending compliance requests",
		"Improve consent collection coverage",
	}, recs)
}

func TestRecommendations_AllClear(t *testing.T) {
	recs := Recommendations(ScoreInput{Compliant: true, AvgConsentRate: 90})
	assert.Equal(t, []string{"Security posture is good, no action required"}, recs)
}

type failingComplianceProvider struct{}

func (failingComplianceProvider) Report(context.Context) (ComplianceReport, error) {
	return ComplianceReport{}, errors.New("compliance service down")
}

func setupDashboard(t *testing.T, provider ComplianceProvider) (*DashboardService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(&models.SecurityEvent{}, &models.BlockEntry{}, &models.Alert{})
	assert.NoError(t, err)

	events := NewEventService(db, nil, 16)
	blocks := NewBlockService(db)
	alerts := NewAlertService(db, nil)
	return NewDashboardService(events, blocks, alerts, provider), db
}

func TestDashboard_Snapshot(t *testing.T) {
	provider := &StaticComplianceProvider{Value: ComplianceReport{Compliant: true, AvgConsentRate: 85}}
	svc, db := setupDashboard(t, provider)

	now := time.Now()
	assert.NoError(t, db.Create(&models.SecurityEvent{UUID: "c1", Severity: models.SeverityCritical, Blocked: true, CreatedAt: now}).Error)
	assert.NoError(t, db.Create(&models.SecurityEvent{UUID: "l1", Severity: models.SeverityLow, CreatedAt: now}).Error)
	assert.NoError(t, db.Create(&models.BlockEntry{UUID: "b1", Type: models.BlockTypeIP, Value: "1.1.1.1", Active: true, ExpiresAt: now.Add(time.Hour)}).Error)

	dash, err := svc.Snapshot(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, "critical", dash.Overview.ThreatLevel)
	// 100 - 10 (critical) - 2 (blocked)
	assert.Equal(t, 88, dash.Overview.SecurityScore)
	assert.Equal(t, int64(1), dash.Overview.ActiveBlocks)
	assert.Equal(t, int64(2), dash.Overview.EventsLast24h)
	assert.Equal(t, int64(1), dash.Security.BlockedIPs)
	assert.Equal(t, int64(0), dash.Security.SuspiciousUsers)
	assert.True(t, dash.Compliance.Compliant)
	assert.Equal(t, "Warden", dash.System.Service)
	assert.Contains(t, dash.Recommendations, "Investigate critical security events immediately")
}

func TestDashboard_SnapshotDegradesWithoutCompliance(t *testing.T) {
	svc, _ := setupDashboard(t, failingComplianceProvider{})

	dash, err := svc.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.True(t, dash.Compliance.Compliant, "neutral report assumed when provider fails")
	assert.Equal(t, 100, dash.Overview.SecurityScore)
	assert.Equal(t, "low", dash.Overview.ThreatLevel)
}
