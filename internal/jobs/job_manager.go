package jobs

import (
	"fmt"
	"time"

	"labtrack/internal/pkg/metrics"

	"go.uber.org/zap"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	staleOrderAuditJob *StaleOrderAuditJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	staleOrdersHandler StaleOrderCounter,
	staleThreshold time.Duration,
	staleSchedule string,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) *JobManager {
	return &JobManager{
		staleOrderAuditJob: NewStaleOrderAuditJob(staleOrdersHandler, staleThreshold, staleSchedule, collectors, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.staleOrderAuditJob.Start(); err != nil {
		return fmt.Errorf("failed to start stale order audit job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.staleOrderAuditJob.Stop()
}
