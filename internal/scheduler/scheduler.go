package scheduler

import (
	"context"
	"log/slog"
	"time"

	"echoloop/internal/domain"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Ingest(ctx context.Context) ([]domain.MessageWithSummary, error)
}

// Scheduler triggers periodic ingestion runs. Runs are sequential by
// construction; a slow run delays the next tick rather than
// overlapping it.
type Scheduler struct {
	ingester Ingester
	interval time.Duration
	logger   *slog.Logger
}

func New(ingester Ingester, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.ingester.Ingest(runCtx); err != nil {
		s.logger.Error("scheduled ingestion failed", "error", err)
	}
}
