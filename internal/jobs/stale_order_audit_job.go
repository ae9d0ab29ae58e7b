package jobs

import (
	"context"
	"time"

	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultStaleOrderSchedule runs the audit every 15 minutes (seconds field first).
const DefaultStaleOrderSchedule = "0 */15 * * * *"

// StaleOrderCounter answers CountStaleOrdersQuery.
type StaleOrderCounter interface {
	Handle(ctx context.Context, query queries.CountStaleOrdersQuery) (int64, error)
}

// StaleOrderAuditJob periodically counts orders that are still in progress
// after threshold and warns when there are any.
type StaleOrderAuditJob struct {
	handler   StaleOrderCounter
	threshold time.Duration
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	metrics   *metrics.Collectors
	logger    *zap.Logger
}

func NewStaleOrderAuditJob(
	handler StaleOrderCounter,
	threshold time.Duration,
	schedule string,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) *StaleOrderAuditJob {
	if schedule == "" {
		schedule = DefaultStaleOrderSchedule
	}
	return &StaleOrderAuditJob{
		handler:   handler,
		threshold: threshold,
		schedule:  schedule,
		timeout:   30 * time.Second,
		cron:      cron.New(cron.WithSeconds()),
		metrics:   collectors,
		logger:    logger.With(zap.String("component", "stale_order_audit_job")),
	}
}

// Start schedules the audit.
func (j *StaleOrderAuditJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		j.Run(ctx)
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Stale order audit job started",
		zap.String("schedule", j.schedule),
		zap.Duration("threshold", j.threshold),
	)
	return nil
}

// Run performs one audit. Failures are logged.
func (j *StaleOrderAuditJob) Run(ctx context.Context) {
	query, err := queries.NewCountStaleOrdersQuery(j.threshold)
	if err != nil {
		j.logger.Error("Stale order audit misconfigured", zap.Error(err))
		return
	}

	count, err := j.handler.Handle(ctx, query)
	if err != nil {
		j.logger.Error("Stale order audit failed", zap.Error(err))
		return
	}

	j.metrics.StaleOrders.Set(float64(count))
	if count > 0 {
		j.logger.Warn("Orders still waiting for a result",
			zap.Int64("count", count),
			zap.Duration("older_than", j.threshold),
		)
	}
}

// Stop stops scheduling and waits for a running audit to finish.
func (j *StaleOrderAuditJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Stale order audit job stopped")
}
