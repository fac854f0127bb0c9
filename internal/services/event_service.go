package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/metrics"
	"github.com/hirewire/warden/internal/models"
)

// AlertRaiser receives persisted high/critical events so they surface as
// admin alerts.
type AlertRaiser interface {
	Raise(event models.SecurityEvent)
}

// EventCounts aggregates severities over a time window for the dashboard.
type EventCounts struct {
	Critical int64
	High     int64
	Blocked  int64
	Total    int64
}

// EventService is the append-only security event log. Appends from the
// request path go through a bounded queue drained by a single writer
// goroutine, so a slow database never delays or rejects a request. When the
// queue is full the oldest pending event is dropped and counted.
type EventService struct {
	db     *gorm.DB
	alerts AlertRaiser

	queue chan models.SecurityEvent
	wg    sync.WaitGroup
	once  sync.Once
}

// NewEventService returns an EventService with the given queue capacity.
// Call Start to launch the writer and Stop to drain it on shutdown.
func NewEventService(db *gorm.DB, alerts AlertRaiser, queueSize int) *EventService {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &EventService{
		db:     db,
		alerts: alerts,
		queue:  make(chan models.SecurityEvent, queueSize),
	}
}

// Start launches the background writer goroutine.
func (s *EventService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for event := range s.queue {
			s.persist(event)
		}
	}()
}

// Stop closes the queue and waits for pending events to be written.
func (s *EventService) Stop() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

// Record enqueues an event without blocking. On overflow the oldest queued
// event is discarded in its favor; if the queue is closed or still full the
// event is dropped with a warning. Logging failures never reach the caller.
func (s *EventService) Record(event models.SecurityEvent) {
	if event.UUID == "" {
		event.UUID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	defer func() {
		// Send on a closed queue panics during shutdown races; dropping
		// the event is the correct outcome then.
		if r := recover(); r != nil {
			metrics.IncEventDropped()
		}
	}()

	select {
	case s.queue <- event:
		return
	default:
	}

	// Queue full: drop the oldest pending event and retry once.
	select {
	case <-s.queue:
		metrics.IncEventDropped()
	default:
	}

	select {
	case s.queue <- event:
	default:
		metrics.IncEventDropped()
		logger.WithFields(map[string]interface{}{
			"source": "event_log",
			"action": event.Action,
		}).Warn("event queue saturated, dropping event")
	}
}

// persist writes one event and forwards alertable ones. Failures are logged
// and swallowed; the event log is best-effort.
func (s *EventService) persist(event models.SecurityEvent) {
	if err := s.db.Create(&event).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"source": "event_log",
			"action": event.Action,
		}).WithError(err).Warn("failed to persist security event")
		return
	}
	metrics.IncEventLogged()

	if s.alerts != nil && event.IsAlertable() {
		s.alerts.Raise(event)
	}
}

// Recent returns the newest events first, capped at limit (default 50).
func (s *EventService) Recent(limit int) ([]models.SecurityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.SecurityEvent
	err := s.db.Order("created_at desc").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountsSince aggregates severity and blocked counts for events created
// after the cutoff.
func (s *EventService) CountsSince(cutoff time.Time) (EventCounts, error) {
	var counts EventCounts
	base := func() *gorm.DB {
		return s.db.Model(&models.SecurityEvent{}).Where("created_at > ?", cutoff)
	}

	if err := base().Where("severity = ?", models.SeverityCritical).Count(&counts.Critical).Error; err != nil {
		return counts, err
	}
	if err := base().Where("severity = ?", models.SeverityHigh).Count(&counts.High).Error; err != nil {
		return counts, err
	}
	if err := base().Where("blocked = ?", true).Count(&counts.Blocked).Error; err != nil {
		return counts, err
	}
	if err := base().Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	return counts, nil
}
