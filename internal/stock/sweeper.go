package stock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically raises warnings for items that went low outside the
// order path, such as manual wastage.
type Sweeper struct {
	warnings *Warnings
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper running every interval
func NewSweeper(warnings *Warnings, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{warnings: warnings, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("stock warning sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stock warning sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.warnings.Sweep(); err != nil {
				s.logger.Error("stock warning sweep failed", zap.Error(err))
			}
		}
	}
}
