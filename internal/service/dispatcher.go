package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/logger"
	"fleetmaint-backend/internal/repository"
	"fleetmaint-backend/internal/schedule"
)

type dispatcher struct {
	store       repository.Store
	messenger   Messenger
	clock       dateutil.Clock
	policy      schedule.Policy
	sendTimeout time.Duration
}

func NewDispatcher(store repository.Store, messenger Messenger, clock dateutil.Clock, policy schedule.Policy, sendTimeout time.Duration) Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &dispatcher{
		store:       store,
		messenger:   messenger,
		clock:       clock,
		policy:      policy.Normalize(),
		sendTimeout: sendTimeout,
	}
}

// EvaluateAndEnqueue creates reminder records for due-soon jobs and
// escalation records for jobs past the overdue grace period. The per-day
// guard makes a repeated evaluation a no-op.
func (d *dispatcher) EvaluateAndEnqueue(ctx context.Context, now time.Time) ([]domain.NotificationRecord, error) {
	jobs, err := d.store.Jobs().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}

	var supervisors []domain.Supervisor
	var created []domain.NotificationRecord
	today := dateutil.DateOf(now)

	for i := range jobs {
		job := &jobs[i]

		eq, err := d.store.Equipment().GetByID(ctx, job.EquipmentID)
		if err != nil {
			logger.Error("Skipping job, equipment lookup failed", "job_id", job.ID, "error", err)
			continue
		}
		op, err := d.store.Operators().GetByID(ctx, job.OperatorID)
		if err != nil {
			logger.Error("Skipping job, operator lookup failed", "job_id", job.ID, "error", err)
			continue
		}

		if schedule.DueSoon(now, job, eq, d.policy) {
			rec, err := d.enqueueOnce(ctx, job, domain.NotificationTypeReminder, op.Email,
				reminderSubject(eq), reminderBody(job, eq, op), today, now)
			if err != nil {
				logger.Error("Failed to enqueue reminder", "job_id", job.ID, "error", err)
			} else if rec != nil {
				created = append(created, *rec)
			}
		}

		if job.State == domain.JobStateOverdue && job.DaysOverdue(now) >= d.policy.EscalationGraceDays {
			if supervisors == nil {
				supervisors, err = d.store.Supervisors().ListActive(ctx)
				if err != nil {
					return created, fmt.Errorf("list supervisors: %w", err)
				}
			}
			for _, sup := range supervisors {
				rec, err := d.enqueueOnce(ctx, job, domain.NotificationTypeEscalation, sup.Email,
					escalationSubject(eq), escalationBody(job, eq, op, now), today, now)
				if err != nil {
					logger.Error("Failed to enqueue escalation", "job_id", job.ID, "supervisor", sup.Email, "error", err)
				} else if rec != nil {
					created = append(created, *rec)
				}
			}
		}
	}
	return created, nil
}

// enqueueOnce creates a record unless the idempotency guard already holds for
// this job today. Reminders are guarded per (job, day) no matter the address,
// so an intra-day operator change cannot double-remind; escalations are per
// supervisor.
func (d *dispatcher) enqueueOnce(ctx context.Context, job *domain.MaintenanceJob, typ domain.NotificationType, recipient, subject, body string, day, now time.Time) (*domain.NotificationRecord, error) {
	guardRecipient := recipient
	if typ == domain.NotificationTypeReminder {
		guardRecipient = ""
	}
	exists, err := d.store.Notifications().ExistsOnDay(ctx, job.ID, typ, guardRecipient, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	rec := &domain.NotificationRecord{
		JobID:        &job.ID,
		MessageID:    uuid.NewString(),
		Type:         typ,
		State:        domain.NotificationStatePending,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		ScheduledFor: now,
	}
	if err := d.store.Notifications().Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FlushPending attempts delivery of every due Pending record. A failed send
// marks that record Failed and moves on; it never aborts the batch, and no
// retry is scheduled here.
func (d *dispatcher) FlushPending(ctx context.Context, now time.Time) ([]domain.DeliveryResult, error) {
	pending, err := d.store.Notifications().ListPendingDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}

	results := make([]domain.DeliveryResult, 0, len(pending))
	for i := range pending {
		results = append(results, d.attempt(ctx, &pending[i]))
	}
	return results, nil
}

func (d *dispatcher) Resend(ctx context.Context, notificationID int32) (*domain.DeliveryResult, error) {
	rec, err := d.store.Notifications().GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if rec.State == domain.NotificationStateSent {
		return nil, fmt.Errorf("%w: notification %d already sent", domain.ErrInvalidInput, notificationID)
	}
	result := d.attempt(ctx, rec)
	return &result, nil
}

// attempt performs one bounded send and records the outcome on the record.
func (d *dispatcher) attempt(ctx context.Context, rec *domain.NotificationRecord) domain.DeliveryResult {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	sendErr := d.messenger.Send(sendCtx, rec.Recipient, rec.Subject, rec.Body)
	if sendErr != nil {
		rec.State = domain.NotificationStateFailed
		rec.Error = sendErr.Error()
		rec.SentAt = nil
	} else {
		now := d.clock.Now()
		rec.State = domain.NotificationStateSent
		rec.SentAt = &now
		rec.Error = ""
	}

	if err := d.store.Notifications().UpdateOutcome(ctx, rec); err != nil {
		logger.Error("Failed to record delivery outcome", "notification_id", rec.ID, "error", err)
	}

	if sendErr != nil {
		logger.Warn("Notification delivery failed",
			"notification_id", rec.ID,
			"recipient", rec.Recipient,
			"error", sendErr)
	} else {
		logger.Debug("Notification delivered", "notification_id", rec.ID, "recipient", rec.Recipient)
	}

	return domain.DeliveryResult{NotificationID: rec.ID, State: rec.State, Error: rec.Error}
}

// SendWeeklyDigest enqueues a fleet summary for every active supervisor.
// Digest records carry no job reference.
func (d *dispatcher) SendWeeklyDigest(ctx context.Context, now time.Time) (int, error) {
	completed, err := d.store.Jobs().CountCompletedSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("count completed jobs: %w", err)
	}
	overdue, err := d.store.Jobs().CountByState(ctx, domain.JobStateOverdue)
	if err != nil {
		return 0, fmt.Errorf("count overdue jobs: %w", err)
	}
	activeEquipment, err := d.store.Equipment().CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active equipment: %w", err)
	}

	supervisors, err := d.store.Supervisors().ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list supervisors: %w", err)
	}

	subject := "Weekly Maintenance Digest"
	body := fmt.Sprintf(`Weekly maintenance summary as of %s:

- Jobs completed in the last 7 days: %d
- Jobs currently overdue: %d
- Active equipment in fleet: %d

Review the system for details.

Fleet Maintenance System`, dateutil.DateOf(now).Format("2006-01-02"), completed, overdue, activeEquipment)

	count := 0
	for _, sup := range supervisors {
		rec := &domain.NotificationRecord{
			MessageID:    uuid.NewString(),
			Type:         domain.NotificationTypeDigest,
			State:        domain.NotificationStatePending,
			Recipient:    sup.Email,
			Subject:      subject,
			Body:         body,
			ScheduledFor: now,
		}
		if err := d.store.Notifications().Create(ctx, rec); err != nil {
			logger.Error("Failed to enqueue digest", "supervisor", sup.Email, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

func reminderSubject(eq *domain.Equipment) string {
	return fmt.Sprintf("Maintenance Reminder - %s", eq.Plate)
}

func reminderBody(job *domain.MaintenanceJob, eq *domain.Equipment, op *domain.Operator) string {
	return fmt.Sprintf(`Dear %s,

Equipment %s (%s %s) has maintenance scheduled.

Details:
- Due date: %s
- Due usage: %d km
- Current usage: %d km

Please schedule the maintenance as soon as possible.

Fleet Maintenance System`,
		op.Name, eq.Plate, eq.Brand, eq.Model,
		dateutil.DateOf(job.DueDate).Format("2006-01-02"), job.DueUsage, eq.CurrentUsage)
}

func escalationSubject(eq *domain.Equipment) string {
	return fmt.Sprintf("ALERT: Overdue Maintenance - %s", eq.Plate)
}

func escalationBody(job *domain.MaintenanceJob, eq *domain.Equipment, op *domain.Operator, now time.Time) string {
	return fmt.Sprintf(`Maintenance for equipment %s (%s %s) is overdue by %d day(s).

Details:
- Due date: %s
- Due usage: %d km
- Current usage: %d km
- Responsible operator: %s (%s)

Supervisor action is required.

Fleet Maintenance System`,
		eq.Plate, eq.Brand, eq.Model, job.DaysOverdue(now),
		dateutil.DateOf(job.DueDate).Format("2006-01-02"), job.DueUsage, eq.CurrentUsage,
		op.Name, op.Email)
}
