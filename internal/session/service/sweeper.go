package service

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"multitenant-cms/internal/session/repository"
	"multitenant-cms/internal/telemetry/metrics"
)

// Sweeper periodically deletes sessions whose access and refresh tokens have both expired. Without it,
// expired sessions are only removed when a client presents them.
type Sweeper struct {
	repo     repository.Repository
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewSweeper returns a Sweeper running every interval. c, logger and mt may be nil.
func NewSweeper(repo repository.Repository, interval time.Duration, c clock.Clock, logger *zap.Logger, mt *metrics.Metrics) *Sweeper {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{repo: repo, clock: c, interval: interval, logger: logger, metrics: mt}
}

// SweepOnce deletes fully expired sessions and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	s.metrics.SessionsSwept(n)
	return n, nil
}

// Run sweeps every interval until ctx is done. A non-positive interval returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("session sweep", zap.Int64("deleted", n))
			}
		}
	}
}
