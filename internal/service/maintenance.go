package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/logger"
	"fleetmaint-backend/internal/repository"
	"fleetmaint-backend/internal/schedule"
)

type maintenanceService struct {
	store                repository.Store
	clock                dateutil.Clock
	policy               schedule.Policy
	allowUsageCorrection bool
	defaultTypeName      string
}

// MaintenanceOptions are the registry/job-store policy knobs beyond the
// scheduling policy itself.
type MaintenanceOptions struct {
	AllowUsageCorrection bool
	DefaultTypeName      string
}

func NewMaintenanceService(store repository.Store, clock dateutil.Clock, policy schedule.Policy, opts MaintenanceOptions) MaintenanceService {
	if opts.DefaultTypeName == "" {
		opts.DefaultTypeName = "Preventive"
	}
	return &maintenanceService{
		store:                store,
		clock:                clock,
		policy:               policy.Normalize(),
		allowUsageCorrection: opts.AllowUsageCorrection,
		defaultTypeName:      opts.DefaultTypeName,
	}
}

func (s *maintenanceService) RegisterEquipment(ctx context.Context, eq *domain.Equipment) (*domain.MaintenanceJob, error) {
	if eq.Plate == "" {
		return nil, fmt.Errorf("%w: plate is required", domain.ErrInvalidInput)
	}
	if eq.CurrentUsage < 0 {
		return nil, fmt.Errorf("%w: usage must be non-negative", domain.ErrInvalidInput)
	}

	var job *domain.MaintenanceJob
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		if err := tx.Equipment().Create(ctx, eq); err != nil {
			return fmt.Errorf("create equipment: %w", err)
		}
		if !eq.Active {
			return nil
		}

		created, err := s.createJobWithDefaults(ctx, tx, eq)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// No active operator yet; the next tick backfills the job.
				logger.Warn("No active operator, first job deferred", "equipment_id", eq.ID)
				return nil
			}
			return err
		}
		job = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *maintenanceService) GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error) {
	return s.store.Equipment().GetByID(ctx, id)
}

func (s *maintenanceService) RecordUsage(ctx context.Context, equipmentID, usage int32) (*domain.Equipment, error) {
	if usage < 0 {
		return nil, fmt.Errorf("%w: usage must be non-negative", domain.ErrInvalidInput)
	}

	var out *domain.Equipment
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		eq, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
		if err != nil {
			return err
		}
		if usage < eq.CurrentUsage {
			if !s.allowUsageCorrection {
				return &domain.UsageRegressionError{EquipmentID: equipmentID, CurrentUsage: eq.CurrentUsage, GivenUsage: usage}
			}
			logger.Warn("Usage correction applied",
				"equipment_id", equipmentID,
				"previous_usage", eq.CurrentUsage,
				"corrected_usage", usage)
		}
		if err := tx.Equipment().UpdateUsage(ctx, equipmentID, usage); err != nil {
			return err
		}
		eq.CurrentUsage = usage
		out = eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *maintenanceService) GetJob(ctx context.Context, id int32) (*domain.MaintenanceJob, error) {
	return s.store.Jobs().GetByID(ctx, id)
}

func (s *maintenanceService) StartJob(ctx context.Context, jobID int32) (*domain.MaintenanceJob, error) {
	var out *domain.MaintenanceJob
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		job, err := tx.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		switch job.State {
		case domain.JobStatePending, domain.JobStateOverdue:
			job.State = domain.JobStateInProgress
		case domain.JobStateInProgress:
			// already started, no-op
		default:
			return &domain.InvalidTransitionError{JobID: jobID, From: job.State, Op: "start"}
		}
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteJob closes the job and creates its successor in one transaction.
// The equipment row lock serializes this against concurrent usage updates and
// duplicate creations.
func (s *maintenanceService) CompleteJob(ctx context.Context, jobID int32, usage int32, costCents *int64, notes string) (*CompleteResult, error) {
	if usage < 0 {
		return nil, fmt.Errorf("%w: completion usage must be non-negative", domain.ErrInvalidInput)
	}
	if costCents != nil && *costCents < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative", domain.ErrInvalidInput)
	}

	result := &CompleteResult{}
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		job, err := tx.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return err
		}

		eq, err := tx.Equipment().GetByIDForUpdate(ctx, job.EquipmentID)
		if err != nil {
			return err
		}

		// Re-read under the lock so a racing completion is seen.
		job, err = tx.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.IsActive() {
			return &domain.InvalidTransitionError{JobID: jobID, From: job.State, Op: "complete"}
		}
		if usage < eq.CurrentUsage {
			return &domain.UsageRegressionError{EquipmentID: eq.ID, CurrentUsage: eq.CurrentUsage, GivenUsage: usage}
		}

		now := s.clock.Now()
		job.State = domain.JobStateCompleted
		job.CompletedAt = &now
		job.CompletedUsage = &usage
		if costCents != nil {
			job.CostCents = costCents
		}
		if notes != "" {
			job.Notes = notes
		}
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return fmt.Errorf("complete job: %w", err)
		}

		if err := tx.Equipment().UpdateUsage(ctx, eq.ID, usage); err != nil {
			return fmt.Errorf("update equipment usage: %w", err)
		}
		eq.CurrentUsage = usage

		// The completed job no longer holds the active slot, so the
		// successor creation satisfies the one-active-job invariant.
		successor, err := s.createJob(ctx, tx, eq, job.OperatorID, job.TypeID, job)
		if err != nil {
			return fmt.Errorf("create successor job: %w", err)
		}

		result.Job = job
		result.Successor = successor
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Maintenance job completed",
		"job_id", result.Job.ID,
		"equipment_id", result.Job.EquipmentID,
		"completed_usage", usage,
		"successor_id", result.Successor.ID)
	return result, nil
}

// UncompleteJob is the administrative reversal. The auto-created successor is
// not retracted; it is surfaced as a stale successor for operator attention.
func (s *maintenanceService) UncompleteJob(ctx context.Context, jobID int32) (*UncompleteResult, error) {
	result := &UncompleteResult{}
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		job, err := tx.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if job.State != domain.JobStateCompleted {
			return &domain.InvalidTransitionError{JobID: jobID, From: job.State, Op: "uncomplete"}
		}

		if _, err := tx.Equipment().GetByIDForUpdate(ctx, job.EquipmentID); err != nil {
			return err
		}

		job.CompletedAt = nil
		job.CompletedUsage = nil
		if dateutil.DateOf(job.DueDate).Before(dateutil.DateOf(s.clock.Now())) {
			job.State = domain.JobStateOverdue
		} else {
			job.State = domain.JobStatePending
		}
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return err
		}
		result.Job = job

		successor, err := tx.Jobs().GetActiveByEquipment(ctx, job.EquipmentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if successor != nil && successor.ID != job.ID {
			result.StaleSuccessor = successor
			logger.Warn("Reopened job leaves a stale successor active",
				"job_id", job.ID,
				"successor_id", successor.ID,
				"equipment_id", job.EquipmentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *maintenanceService) ForceCreateJob(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error) {
	var out *domain.MaintenanceJob
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		eq, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
		if err != nil {
			return err
		}
		job, err := s.createJobWithDefaults(ctx, tx, eq)
		if err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *maintenanceService) RescheduleJob(ctx context.Context, jobID int32, dueDate time.Time) (*domain.MaintenanceJob, error) {
	var out *domain.MaintenanceJob
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		job, err := tx.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.IsActive() {
			return &domain.InvalidTransitionError{JobID: jobID, From: job.State, Op: "reschedule"}
		}

		job.DueDate = dateutil.DateOf(dueDate)
		today := dateutil.DateOf(s.clock.Now())
		// Moving the due date across today flips Pending <-> Overdue.
		if job.State == domain.JobStateOverdue && !job.DueDate.Before(today) {
			job.State = domain.JobStatePending
		} else if job.State == domain.JobStatePending && job.DueDate.Before(today) {
			job.State = domain.JobStateOverdue
		}
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *maintenanceService) ListJobsByEquipment(ctx context.Context, equipmentID int32) ([]domain.MaintenanceJob, error) {
	return s.store.Jobs().ListByEquipment(ctx, equipmentID)
}

func (s *maintenanceService) ListJobsByState(ctx context.Context, state domain.JobState) ([]domain.MaintenanceJob, error) {
	return s.store.Jobs().ListByState(ctx, state)
}

func (s *maintenanceService) ListJobsByDueDateRange(ctx context.Context, from, to time.Time) ([]domain.MaintenanceJob, error) {
	return s.store.Jobs().ListByDueDateRange(ctx, from, to)
}

func (s *maintenanceService) MarkOverdueJobs(ctx context.Context, now time.Time) (overdue, reopened, anomalies int) {
	jobs, err := s.store.Jobs().ListActive(ctx)
	if err != nil {
		logger.Error("Failed to list active jobs", "error", err)
		return 0, 0, 1
	}

	today := dateutil.DateOf(now)
	for i := range jobs {
		job := &jobs[i]
		var next domain.JobState
		switch {
		case job.State == domain.JobStatePending && dateutil.DateOf(job.DueDate).Before(today):
			next = domain.JobStateOverdue
		case job.State == domain.JobStateOverdue && !dateutil.DateOf(job.DueDate).Before(today):
			next = domain.JobStatePending
		default:
			continue
		}

		err := s.store.Transact(ctx, func(tx repository.Store) error {
			current, err := tx.Jobs().GetByID(ctx, job.ID)
			if err != nil {
				return err
			}
			if current.State != job.State {
				return nil // transitioned concurrently
			}
			current.State = next
			return tx.Jobs().Update(ctx, current)
		})
		if err != nil {
			logger.Error("Failed to transition job", "job_id", job.ID, "to", next, "error", err)
			anomalies++
			continue
		}
		if next == domain.JobStateOverdue {
			overdue++
		} else {
			reopened++
		}
	}
	return overdue, reopened, anomalies
}

func (s *maintenanceService) EnsureActiveJobs(ctx context.Context, now time.Time) (created, anomalies int) {
	equipment, err := s.store.Equipment().ListActive(ctx)
	if err != nil {
		logger.Error("Failed to list active equipment", "error", err)
		return 0, 1
	}

	for i := range equipment {
		eq := &equipment[i]
		err := s.store.Transact(ctx, func(tx repository.Store) error {
			locked, err := tx.Equipment().GetByIDForUpdate(ctx, eq.ID)
			if err != nil {
				return err
			}
			_, err = s.createJobWithDefaults(ctx, tx, locked)
			return err
		})
		switch {
		case err == nil:
			created++
			logger.Info("Backfilled maintenance job", "equipment_id", eq.ID)
		case isDuplicateActive(err):
			// equipment already covered
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("No active operator, equipment left without job", "equipment_id", eq.ID)
			anomalies++
		default:
			logger.Error("Failed to backfill job", "equipment_id", eq.ID, "error", err)
			anomalies++
		}
	}
	return created, anomalies
}

// createJobWithDefaults picks the first active operator and the default
// maintenance type (seeding it on first use), then creates the job.
func (s *maintenanceService) createJobWithDefaults(ctx context.Context, tx repository.Store, eq *domain.Equipment) (*domain.MaintenanceJob, error) {
	op, err := tx.Operators().FirstActive(ctx)
	if err != nil {
		return nil, err
	}

	mt, err := tx.Types().FindByName(ctx, s.defaultTypeName)
	if errors.Is(err, domain.ErrNotFound) {
		mt = &domain.MaintenanceType{Name: s.defaultTypeName, Description: "Standard preventive maintenance"}
		if err := tx.Types().Create(ctx, mt); err != nil {
			return nil, fmt.Errorf("seed default maintenance type: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	return s.createJob(ctx, tx, eq, op.ID, mt.ID, nil)
}

// createJob enforces the one-active-job invariant with an explicit
// check-then-create; callers hold the equipment row lock.
func (s *maintenanceService) createJob(ctx context.Context, tx repository.Store, eq *domain.Equipment, operatorID, typeID int32, lastCompleted *domain.MaintenanceJob) (*domain.MaintenanceJob, error) {
	existing, err := tx.Jobs().GetActiveByEquipment(ctx, eq.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.DuplicateActiveJobError{EquipmentID: eq.ID, ConflictingJobID: existing.ID}
	}

	if lastCompleted == nil {
		lastCompleted, err = tx.Jobs().LatestCompletedByEquipment(ctx, eq.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	proj := schedule.NextDue(s.clock.Now(), eq, lastCompleted, s.policy)
	job := &domain.MaintenanceJob{
		EquipmentID: eq.ID,
		OperatorID:  operatorID,
		TypeID:      typeID,
		DueDate:     proj.DueDate,
		DueUsage:    proj.DueUsage,
		State:       domain.JobStatePending,
	}
	if err := tx.Jobs().Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func isDuplicateActive(err error) bool {
	var dup *domain.DuplicateActiveJobError
	return errors.As(err, &dup)
}
