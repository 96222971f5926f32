package alert

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Sweeper periodically reconciles detections whose fan-out never produced
// alerts (for example after a crash between the detection write and the
// alert batch insert). Re-running fan-out is idempotent because the store
// ignores conflicting (user, detection) rows. Detections that match no
// subscriber are re-scanned on every sweep indefinitely; the scan set only
// shrinks once a matching profile appears.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	grace    time.Duration
	logger   log.Logger
}

// NewSweeper creates a sweeper that runs every interval and only touches
// detections older than grace.
func NewSweeper(svc *Service, interval, grace time.Duration, logger log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Nop()
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		grace:    grace,
		logger:   logger,
	}
}

// Run blocks until ctx is done, sweeping once per interval.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recovered, err := w.svc.SweepOnce(ctx, w.grace)
			if err != nil {
				w.logger.Error(ctx, err, "reconciliation sweep failed")
				w.count("error")
				continue
			}
			if recovered > 0 {
				w.logger.Info(ctx, "reconciliation sweep complete", "recovered", recovered)
			}
			w.count("ok")
		}
	}
}

func (w *Sweeper) count(result string) {
	if w.svc.metrics != nil {
		w.svc.metrics.SweepRunsTotal.WithLabelValues(result).Inc()
	}
}
