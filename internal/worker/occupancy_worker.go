package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/service"
)

// OccupancyWorker periodically reconciles house statuses against the
// active tenant roster. It repairs drift left behind by failed
// best-effort status updates in the tenancy paths.
type OccupancyWorker struct {
	occupancy *service.OccupancyService
	logger    *slog.Logger
	interval  time.Duration
}

// NewOccupancyWorker creates a new occupancy worker
func NewOccupancyWorker(occupancy *service.OccupancyService, logger *slog.Logger, interval time.Duration) *OccupancyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &OccupancyWorker{occupancy: occupancy, logger: logger, interval: interval}
}

// Start begins the reconciliation loop. It blocks until ctx is
// cancelled, so run it in a goroutine.
func (w *OccupancyWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("occupancy worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("occupancy worker stopped")
			return
		case <-ticker.C:
			updated, err := w.occupancy.Sync(ctx)
			if err != nil {
				w.logger.Error("occupancy sync failed", slog.String("error", err.Error()))
				continue
			}
			if updated > 0 {
				w.logger.Info("occupancy sync corrected houses", slog.Int("updated", updated))
			}
		}
	}
}
