package repository

import (
	"context"
	"database/sql"
	"time"

	"fleetmaint-backend/internal/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so the same repository code runs
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id int32) (*domain.Equipment, error)
	// GetByIDForUpdate takes the per-equipment lock; only meaningful inside
	// Store.Transact.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error)
	UpdateUsage(ctx context.Context, id int32, usage int32) error
	ListActive(ctx context.Context) ([]domain.Equipment, error)
	CountActive(ctx context.Context) (int, error)
}

type OperatorRepository interface {
	Create(ctx context.Context, op *domain.Operator) error
	GetByID(ctx context.Context, id int32) (*domain.Operator, error)
	FirstActive(ctx context.Context) (*domain.Operator, error)
}

type SupervisorRepository interface {
	Create(ctx context.Context, s *domain.Supervisor) error
	ListActive(ctx context.Context) ([]domain.Supervisor, error)
}

type MaintenanceTypeRepository interface {
	Create(ctx context.Context, mt *domain.MaintenanceType) error
	GetByID(ctx context.Context, id int32) (*domain.MaintenanceType, error)
	FindByName(ctx context.Context, name string) (*domain.MaintenanceType, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *domain.MaintenanceJob) error
	GetByID(ctx context.Context, id int32) (*domain.MaintenanceJob, error)
	Update(ctx context.Context, job *domain.MaintenanceJob) error
	// GetActiveByEquipment returns the single non-completed job for the
	// equipment, or domain.ErrNotFound.
	GetActiveByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error)
	LatestCompletedByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error)
	ListActive(ctx context.Context) ([]domain.MaintenanceJob, error)
	ListByEquipment(ctx context.Context, equipmentID int32) ([]domain.MaintenanceJob, error)
	ListByState(ctx context.Context, state domain.JobState) ([]domain.MaintenanceJob, error)
	ListByDueDateRange(ctx context.Context, from, to time.Time) ([]domain.MaintenanceJob, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int, error)
	CountByState(ctx context.Context, state domain.JobState) (int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.NotificationRecord) error
	GetByID(ctx context.Context, id int32) (*domain.NotificationRecord, error)
	// UpdateOutcome records a send attempt's result.
	UpdateOutcome(ctx context.Context, n *domain.NotificationRecord) error
	ListPendingDue(ctx context.Context, now time.Time) ([]domain.NotificationRecord, error)
	ListByState(ctx context.Context, state domain.NotificationState) ([]domain.NotificationRecord, error)
	// ExistsOnDay is the idempotency guard: reports whether a record of this
	// type already targets the recipient for the job on the given calendar
	// day, judged by the record's scheduled_for. An empty recipient matches
	// records for any recipient.
	ExistsOnDay(ctx context.Context, jobID int32, typ domain.NotificationType, recipient string, day time.Time) (bool, error)
}

// Store bundles the repositories and provides transactional scope. Transact
// runs fn against a Store bound to one transaction, committing on nil and
// rolling back otherwise.
type Store interface {
	Equipment() EquipmentRepository
	Operators() OperatorRepository
	Supervisors() SupervisorRepository
	Types() MaintenanceTypeRepository
	Jobs() JobRepository
	Notifications() NotificationRepository
	Transact(ctx context.Context, fn func(Store) error) error
}
