package service

import (
	"context"
	"time"

	"fleetmaint-backend/internal/domain"
)

// MaintenanceService owns equipment registration, usage updates, and the
// maintenance job state machine. All state transitions happen in a single
// transaction under the equipment row lock.
type MaintenanceService interface {
	// RegisterEquipment creates the equipment and, when it is active and an
	// operator is available, its first job. The job is nil when no active
	// operator exists yet; the next tick backfills it.
	RegisterEquipment(ctx context.Context, eq *domain.Equipment) (*domain.MaintenanceJob, error)
	GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error)
	// RecordUsage applies an odometer reading; the higher value wins. A lower
	// reading fails unless usage correction is enabled, in which case it is
	// applied and audit-logged.
	RecordUsage(ctx context.Context, equipmentID, usage int32) (*domain.Equipment, error)

	GetJob(ctx context.Context, id int32) (*domain.MaintenanceJob, error)
	StartJob(ctx context.Context, jobID int32) (*domain.MaintenanceJob, error)
	CompleteJob(ctx context.Context, jobID int32, usage int32, costCents *int64, notes string) (*CompleteResult, error)
	UncompleteJob(ctx context.Context, jobID int32) (*UncompleteResult, error)
	ForceCreateJob(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error)
	RescheduleJob(ctx context.Context, jobID int32, dueDate time.Time) (*domain.MaintenanceJob, error)

	ListJobsByEquipment(ctx context.Context, equipmentID int32) ([]domain.MaintenanceJob, error)
	ListJobsByState(ctx context.Context, state domain.JobState) ([]domain.MaintenanceJob, error)
	ListJobsByDueDateRange(ctx context.Context, from, to time.Time) ([]domain.MaintenanceJob, error)

	// MarkOverdueJobs applies the automatic Pending->Overdue transition (and
	// the reverse for rescheduled jobs). Idempotent.
	MarkOverdueJobs(ctx context.Context, now time.Time) (overdue, reopened, anomalies int)
	// EnsureActiveJobs creates a job for every active equipment without one.
	EnsureActiveJobs(ctx context.Context, now time.Time) (created, anomalies int)
}

// CompleteResult carries the completed job and the automatically created
// successor.
type CompleteResult struct {
	Job       *domain.MaintenanceJob `json:"job"`
	Successor *domain.MaintenanceJob `json:"successor"`
}

// UncompleteResult carries the reopened job. StaleSuccessor is the
// auto-created next job that is still active; it is not retracted, only
// flagged for operator attention.
type UncompleteResult struct {
	Job            *domain.MaintenanceJob `json:"job"`
	StaleSuccessor *domain.MaintenanceJob `json:"stale_successor,omitempty"`
}

// Dispatcher decides which jobs need notifications, records them, and drives
// delivery through the Messenger.
type Dispatcher interface {
	EvaluateAndEnqueue(ctx context.Context, now time.Time) ([]domain.NotificationRecord, error)
	FlushPending(ctx context.Context, now time.Time) ([]domain.DeliveryResult, error)
	Resend(ctx context.Context, notificationID int32) (*domain.DeliveryResult, error)
	// SendWeeklyDigest enqueues a fleet-wide digest for every active
	// supervisor and returns the number of records created.
	SendWeeklyDigest(ctx context.Context, now time.Time) (int, error)
}

// Messenger is the outbound messaging collaborator: a single opaque fallible
// send. Implementations must honor ctx cancellation; the dispatcher never
// retries on its own.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}
