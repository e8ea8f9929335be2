package services

import (
	"time"

	"github.com/promptgate/promptgate/pkg/logger"
	"github.com/robfig/cron/v3"
)

// RetentionService purges old terminal audit records on a daily schedule.
// Pending records are kept regardless of age.
type RetentionService struct {
	ledger    *Ledger
	days      int
	scheduler *cron.Cron
}

func NewRetentionService(ledger *Ledger, days int) *RetentionService {
	return &RetentionService{ledger: ledger, days: days}
}

// Start schedules the nightly purge. Retention of zero or less disables it.
func (s *RetentionService) Start() {
	if s.days <= 0 {
		logger.Info().Msg("audit retention disabled")
		return
	}
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("0 3 * * *", s.Purge); err != nil {
		logger.Error().Err(err).Msg("failed to schedule retention purge")
		return
	}
	s.scheduler.Start()
	logger.Info().Int("days", s.days).Msg("audit retention scheduler started")
}

func (s *RetentionService) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Purge deletes terminal records older than the retention window.
func (s *RetentionService) Purge() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.days)
	deleted, err := s.ledger.PurgeTerminalBefore(cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("retention purge failed")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("retention purge completed")
	}
}
