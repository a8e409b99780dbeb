package jobs

import (
	"context"
	"time"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/logger"
)

// DriverTick is the scheduler's single entry point. Each tick, in order:
// overdue transitions, job backfill, notification evaluation, delivery flush.
// Expected failures are absorbed into the summary; a back-to-back rerun with
// no intervening state change yields an all-zero summary.
func (jr *JobRunner) DriverTick(ctx context.Context, now time.Time) domain.TickSummary {
	var summary domain.TickSummary

	// 1. Pending -> Overdue (and rescheduled Overdue -> Pending).
	overdue, reopened, anomalies := jr.maintenance.MarkOverdueJobs(ctx, now)
	summary.JobsOverdue = overdue
	summary.JobsReopened = reopened
	summary.Anomalies += anomalies

	// 2. Every active equipment gets an active job.
	created, anomalies := jr.maintenance.EnsureActiveJobs(ctx, now)
	summary.JobsCreated = created
	summary.Anomalies += anomalies

	// 3. Evaluate reminders/escalations, then flush deliveries.
	enqueued, err := jr.dispatcher.EvaluateAndEnqueue(ctx, now)
	if err != nil {
		logger.Error("Notification evaluation failed", "error", err)
		summary.Anomalies++
	}
	summary.NotificationsEnqueued = len(enqueued)

	results, err := jr.dispatcher.FlushPending(ctx, now)
	if err != nil {
		logger.Error("Notification flush failed", "error", err)
		summary.Anomalies++
	}
	for _, r := range results {
		switch r.State {
		case domain.NotificationStateSent:
			summary.NotificationsSent++
		case domain.NotificationStateFailed:
			summary.NotificationsFailed++
		}
	}

	return summary
}

// SendWeeklyDigest enqueues the supervisor digest and flushes it immediately.
func (jr *JobRunner) SendWeeklyDigest(ctx context.Context, now time.Time) int {
	count, err := jr.dispatcher.SendWeeklyDigest(ctx, now)
	if err != nil {
		logger.Error("Failed to enqueue weekly digest", "error", err)
		return 0
	}
	if _, err := jr.dispatcher.FlushPending(ctx, now); err != nil {
		logger.Error("Failed to flush digest notifications", "error", err)
	}
	return count
}
