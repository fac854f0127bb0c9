package jobs

import (
	"github.com/robfig/cron/v3"

	"github.com/hirewire/warden/internal/gateway"
	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/services"
)

// Sweeper runs the periodic housekeeping jobs off the request path: evicting
// expired rate-limit counters to bound memory, and flipping the active flag
// off expired block entries so audit queries stay honest.
type Sweeper struct {
	cron    *cron.Cron
	limiter gateway.RateLimitStore
	blocks  *services.BlockService
}

// NewSweeper builds the job scheduler.
func NewSweeper(limiter gateway.RateLimitStore, blocks *services.BlockService) *Sweeper {
	return &Sweeper{
		cron:    cron.New(),
		limiter: limiter,
		blocks:  blocks,
	}
}

// Start registers and launches the sweep jobs.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.sweepRateLimits); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 5m", s.sweepBlocks); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweepRateLimits() {
	if evicted := s.limiter.Sweep(); evicted > 0 {
		logger.WithFields(map[string]interface{}{
			"source":  "sweeper",
			"evicted": evicted,
			"tracked": s.limiter.Len(),
		}).Debug("evicted expired rate-limit counters")
	}
}

func (s *Sweeper) sweepBlocks() {
	count, err := s.blocks.DeactivateExpired()
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"source": "sweeper",
		}).WithError(err).Warn("failed to deactivate expired block entries")
		return
	}
	if count > 0 {
		logger.WithFields(map[string]interface{}{
			"source":      "sweeper",
			"deactivated": count,
		}).Info("deactivated expired block entries")
	}
}
