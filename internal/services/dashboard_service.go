package services

import (
	"context"
	"time"

	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/models"
	"github.com/hirewire/warden/internal/version"
)

// ScoreInput feeds the security score and recommendation calculations.
type ScoreInput struct {
	CriticalCount     int64
	HighCount         int64
	BlockedEventCount int64
	BlockedIPCount    int64
	Compliant         bool
	AvgConsentRate    float64
	PendingRequests   int
}

// Overview is the dashboard headline block.
type Overview struct {
	SecurityScore int    `json:"security_score"`
	ThreatLevel   string `json:"threat_level"`
	ActiveBlocks  int64  `json:"active_blocks"`
	EventsLast24h int64  `json:"events_last_24h"`
}

// SecuritySection carries the detail metrics and feeds.
type SecuritySection struct {
	Metrics         EventCounts    `json:"metrics"`
	Alerts          []models.Alert `json:"alerts"`
	BlockedIPs      int64          `json:"blocked_ips"`
	SuspiciousUsers int64          `json:"suspicious_users"`
	ThreatLevel     string         `json:"threat_level"`
}

// SystemSection reports gateway process details.
type SystemSection struct {
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Dashboard is the full aggregated read model.
type Dashboard struct {
	Overview        Overview         `json:"overview"`
	Security        SecuritySection  `json:"security"`
	Compliance      ComplianceReport `json:"compliance"`
	System          SystemSection    `json:"system"`
	Recommendations []string         `json:"recommendations"`
}

// DashboardService computes the security dashboard on demand from the event
// log, the block registry and the external compliance report. Nothing here
// is persisted; every read recomputes.
type DashboardService struct {
	events     *EventService
	blocks     *BlockService
	alerts     *AlertService
	compliance ComplianceProvider
}

// NewDashboardService wires the aggregator's inputs.
func NewDashboardService(events *EventService, blocks *BlockService, alerts *AlertService, compliance ComplianceProvider) *DashboardService {
	return &DashboardService{events: events, blocks: blocks, alerts: alerts, compliance: compliance}
}

// SecurityScore derives the 0-100 posture metric. Each critical event costs
// 10 points, each high event 5, each blocked request 2; non-compliance costs
// 20 and a consent rate below 50% another 15.
func SecurityScore(in ScoreInput) int {
	score := 100
	score -= int(in.CriticalCount) * 10
	score -= int(in.HighCount) * 5
	score -= int(in.BlockedEventCount) * 2
	if !in.Compliant {
		score -= 20
	}
	if in.AvgConsentRate < 50 {
		score -= 15
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ThreatLevel derives the coarse categorical summary from the same counts.
func ThreatLevel(criticalCount, highCount, blockedEventCount int64) string {
	switch {
	case criticalCount > 0:
		return "critical"
	case highCount > 5:
		return "high"
	case blockedEventCount > 10:
		return "medium"
	default:
		return "low"
	}
}

// Recommendations builds the advice list. The checks run independently in a
// fixed order so output is deterministic; when none fire a single
// all-clear message is returned.
func Recommendations(in ScoreInput) []string {
	var recs []string
	if in.CriticalCount > 0 {
		recs = append(recs, "Investigate critical security events immediately")
	}
	if in.BlockedIPCount > 10 {
		recs = append(recs, "Review blocked IPs and consider tightening rate limits")
	}
	if !in.Compliant {
		recs = append(recs, "Clean up expired data to restore compliance")
	}
	if in.PendingRequests > 5 {
		recs = append(recs, "Process pending compliance requests")
	}
	if in.AvgConsentRate < 70 {
		recs = append(recs, "Improve consent collection coverage")
	}
	if len(recs) == 0 {
		recs = append(recs, "Security posture is good, no action required")
	}
	return recs
}

// Snapshot assembles the dashboard over the trailing 24 hours. A failing
// compliance provider degrades to the neutral default report.
func (s *DashboardService) Snapshot(ctx context.Context) (Dashboard, error) {
	cutoff := time.Now().Add(-24 * time.Hour)

	counts, err := s.events.CountsSince(cutoff)
	if err != nil {
		return Dashboard{}, err
	}

	blockedIPs, err := s.blocks.CountActive(models.BlockTypeIP)
	if err != nil {
		return Dashboard{}, err
	}
	suspiciousUsers, err := s.blocks.CountActive(models.BlockTypeUser)
	if err != nil {
		return Dashboard{}, err
	}

	report, err := s.compliance.Report(ctx)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"source": "dashboard",
		}).WithError(err).Warn("compliance provider unavailable, using neutral report")
		report = DefaultComplianceReport()
	}

	openAlerts, err := s.alerts.List(true, 50)
	if err != nil {
		return Dashboard{}, err
	}

	in := ScoreInput{
		CriticalCount:     counts.Critical,
		HighCount:         counts.High,
		BlockedEventCount: counts.Blocked,
		BlockedIPCount:    blockedIPs,
		Compliant:         report.Compliant,
		AvgConsentRate:    report.AvgConsentRate,
		PendingRequests:   report.PendingRequests,
	}
	level := ThreatLevel(counts.Critical, counts.High, counts.Blocked)

	return Dashboard{
		Overview: Overview{
			SecurityScore: SecurityScore(in),
			ThreatLevel:   level,
			ActiveBlocks:  blockedIPs + suspiciousUsers,
			EventsLast24h: counts.Total,
		},
		Security: SecuritySection{
			Metrics:         counts,
			Alerts:          openAlerts,
			BlockedIPs:      blockedIPs,
			SuspiciousUsers: suspiciousUsers,
			ThreatLevel:     level,
		},
		Compliance: report,
		System: SystemSection{
			Service:   version.Name,
			Version:   version.Full(),
			Timestamp: time.Now(),
		},
		Recommendations: Recommendations(in),
	}, nil
}
