package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"presence-service/internal/metrics"
)

// HiveSweeper drops idle hives and reports live totals. Sweep runs onRemove
// for each dropped hive before any hive with the same id can be recreated.
type HiveSweeper interface {
	Sweep(onRemove func(hiveID int64)) []int64
	Stats() (hives, users int)
}

// MirrorCleaner removes what a swept hive left in the presence mirror.
type MirrorCleaner interface {
	Clear(ctx context.Context, hiveID int64) error
}

// SweepJob periodically frees hives that no connection is bound to.
type SweepJob struct {
	hives    HiveSweeper
	mirror   MirrorCleaner
	metrics  *metrics.Metrics
	logger   *zap.Logger
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

// NewSweepJob creates a SweepJob. mirror may be nil when Redis is disabled.
func NewSweepJob(
	hives HiveSweeper,
	mirror MirrorCleaner,
	m *metrics.Metrics,
	logger *zap.Logger,
	schedule string,
) *SweepJob {
	return &SweepJob{
		hives:    hives,
		mirror:   mirror,
		metrics:  m,
		logger:   logger,
		schedule: schedule,
		timeout:  5 * time.Second,
		cron:     cron.New(),
	}
}

// Start schedules Run and starts the scheduler.
func (j *SweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return fmt.Errorf("failed to schedule hive sweep %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.logger.Info("Hive sweep job started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (j *SweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Hive sweep job stopped")
}

// Run executes one sweep
func (j *SweepJob) Run() {
	var clearMirror func(hiveID int64)
	if j.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		// runs under the manager lock so a rejoin cannot publish before the clear
		clearMirror = func(hiveID int64) {
			if err := j.mirror.Clear(ctx, hiveID); err != nil {
				j.logger.Warn("Failed to clear mirrored presence",
					zap.Int64("hiveId", hiveID),
					zap.Error(err),
				)
			}
		}
	}

	removed := j.hives.Sweep(clearMirror)

	hives, users := j.hives.Stats()
	j.metrics.SetPresenceTotals(hives, users)

	if len(removed) > 0 {
		j.logger.Info("Idle hives swept",
			zap.Int("removed", len(removed)),
			zap.Int("active_hives", hives),
			zap.Int("online_users", users),
		)
	}
}
