// Package jobs provides scheduled background tasks.
//
// Jobs are built on github.com/robfig/cron/v3 with a seconds field and are
// started and stopped together through JobManager:
//
//	jobManager := jobs.NewJobManager(staleOrdersHandler, 48*time.Hour, "", collectors, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// StaleOrderAuditJob counts orders still in progress past a threshold,
// publishes the count as the labtrack_stale_orders gauge and logs a warning
// when it is non-zero. Job errors are logged and never stop the schedule.
package jobs
