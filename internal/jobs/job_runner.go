package jobs

import (
	"context"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/logger"
	"fleetmaint-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	maintenance service.MaintenanceService
	dispatcher  service.Dispatcher
	clock       dateutil.Clock
}

// NewJobRunner creates a new job runner with all dependencies.
func NewJobRunner(maintenance service.MaintenanceService, dispatcher service.Dispatcher, clock dateutil.Clock) *JobRunner {
	return &JobRunner{
		maintenance: maintenance,
		dispatcher:  dispatcher,
		clock:       clock,
	}
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunDailyTick runs the full scheduler tick with the current time.
func (jr *JobRunner) RunDailyTick() {
	jr.runWithRecovery("DailyTick", func() {
		summary := jr.DriverTick(context.Background(), jr.clock.Now())
		logger.Info("Tick summary",
			"jobs_overdue", summary.JobsOverdue,
			"jobs_reopened", summary.JobsReopened,
			"jobs_created", summary.JobsCreated,
			"notifications_enqueued", summary.NotificationsEnqueued,
			"notifications_sent", summary.NotificationsSent,
			"notifications_failed", summary.NotificationsFailed,
			"anomalies", summary.Anomalies)
	})
}

// RunWeeklyDigest enqueues and delivers the supervisor digest.
func (jr *JobRunner) RunWeeklyDigest() {
	jr.runWithRecovery("WeeklyDigest", func() {
		count := jr.SendWeeklyDigest(context.Background(), jr.clock.Now())
		logger.Info("Weekly digest enqueued", "count", count)
	})
}
