package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType classifies a security event.
type EventType string

const (
	EventAuthentication     EventType = "authentication"
	EventAuthorization      EventType = "authorization"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventDataAccess         EventType = "data_access"
)

// Severity grades a security event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EventDetails is a flat key-value payload stored as JSON text.
//
// Documented keys by action:
//   - sql_injection_blocked / xss_blocked: "pattern", "category", "surface"
//   - rate_limited: "limit", "window"
//   - ip_blocked: "reason"
//   - security_middleware_error / malformed_request: "error"
type EventDetails map[string]string

// Value implements driver.Valuer so gorm stores the map as JSON.
func (d EventDetails) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *EventDetails) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported event details type %T", value)
	}
	if len(raw) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(raw, d)
}

// SecurityEvent records one admission decision (allowed or blocked) made by
// the gateway. Events are append-only: they are never updated or deleted.
type SecurityEvent struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UUID      string       `json:"uuid" gorm:"uniqueIndex"`
	Type      EventType    `json:"type" gorm:"index"`
	Severity  Severity     `json:"severity" gorm:"index"`
	SourceIP  string       `json:"source_ip" gorm:"index"`
	UserAgent string       `json:"user_agent"`
	Resource  string       `json:"resource"`
	Action    string       `json:"action"`
	Details   EventDetails `json:"details" gorm:"type:text"`
	Region    string       `json:"region"`
	Blocked   bool         `json:"blocked" gorm:"index"`
	CreatedAt time.Time    `json:"created_at" gorm:"index"`
}

// IsAlertable reports whether the event should surface as an admin alert.
func (e *SecurityEvent) IsAlertable() bool {
	return e.Severity == SeverityHigh || e.Severity == SeverityCritical
}
