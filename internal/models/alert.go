package models

import (
	"time"
)

// Alert is the actionable surface over a high or critical SecurityEvent.
// Lifecycle: open → acknowledged (idempotent) → dismissed (terminal).
// A dismissed alert can never be acknowledged afterwards.
type Alert struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UUID           string     `json:"uuid" gorm:"uniqueIndex"`
	SourceEventID  string     `json:"source_event_id" gorm:"index"`
	Title          string     `json:"title"`
	Severity       Severity   `json:"severity" gorm:"index"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	Dismissed      bool       `json:"dismissed" gorm:"index"`
	DismissedBy    string     `json:"dismissed_by,omitempty"`
	DismissedAt    *time.Time `json:"dismissed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
