package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

type jobRepository struct {
	db repository.DBTX
}

func NewJobRepository(db repository.DBTX) repository.JobRepository {
	return &jobRepository{db: db}
}

const jobColumns = `id, equipment_id, operator_id, type_id, due_date, due_usage, completed_at, completed_usage, state, notes, cost_cents, created_on, updated_on`

func scanJob(row interface{ Scan(...any) error }) (*domain.MaintenanceJob, error) {
	j := &domain.MaintenanceJob{}
	err := row.Scan(&j.ID, &j.EquipmentID, &j.OperatorID, &j.TypeID, &j.DueDate, &j.DueUsage,
		&j.CompletedAt, &j.CompletedUsage, &j.State, &j.Notes, &j.CostCents, &j.CreatedOn, &j.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

func (r *jobRepository) scanJobs(rows *sql.Rows) ([]domain.MaintenanceJob, error) {
	defer rows.Close()
	var out []domain.MaintenanceJob
	for rows.Next() {
		var j domain.MaintenanceJob
		if err := rows.Scan(&j.ID, &j.EquipmentID, &j.OperatorID, &j.TypeID, &j.DueDate, &j.DueUsage,
			&j.CompletedAt, &j.CompletedUsage, &j.State, &j.Notes, &j.CostCents, &j.CreatedOn, &j.UpdatedOn); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *jobRepository) Create(ctx context.Context, job *domain.MaintenanceJob) error {
	query := `INSERT INTO maintenance_jobs (equipment_id, operator_id, type_id, due_date, due_usage, state, notes, cost_cents, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	job.CreatedOn = now
	job.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query, job.EquipmentID, job.OperatorID, job.TypeID, job.DueDate, job.DueUsage,
		job.State, job.Notes, job.CostCents, now, now).Scan(&job.ID)
}

func (r *jobRepository) GetByID(ctx context.Context, id int32) (*domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs WHERE id = $1`
	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

func (r *jobRepository) Update(ctx context.Context, job *domain.MaintenanceJob) error {
	query := `UPDATE maintenance_jobs SET due_date=$1, due_usage=$2, completed_at=$3, completed_usage=$4, state=$5, notes=$6, cost_cents=$7, updated_on=$8 WHERE id=$9`
	res, err := r.db.ExecContext(ctx, query, job.DueDate, job.DueUsage, job.CompletedAt, job.CompletedUsage,
		job.State, job.Notes, job.CostCents, time.Now(), job.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepository) GetActiveByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs
	          WHERE equipment_id = $1 AND state IN ('PENDING', 'IN_PROGRESS', 'OVERDUE')
	          ORDER BY id LIMIT 1`
	return scanJob(r.db.QueryRowContext(ctx, query, equipmentID))
}

func (r *jobRepository) LatestCompletedByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs
	          WHERE equipment_id = $1 AND state = 'COMPLETED'
	          ORDER BY completed_at DESC LIMIT 1`
	return scanJob(r.db.QueryRowContext(ctx, query, equipmentID))
}

func (r *jobRepository) ListActive(ctx context.Context) ([]domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs
	          WHERE state IN ('PENDING', 'IN_PROGRESS', 'OVERDUE') ORDER BY due_date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *jobRepository) ListByEquipment(ctx context.Context, equipmentID int32) ([]domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs WHERE equipment_id = $1 ORDER BY due_date DESC`
	rows, err := r.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *jobRepository) ListByState(ctx context.Context, state domain.JobState) ([]domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs WHERE state = $1 ORDER BY due_date`
	rows, err := r.db.QueryContext(ctx, query, state)
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *jobRepository) ListByDueDateRange(ctx context.Context, from, to time.Time) ([]domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs WHERE due_date >= $1 AND due_date <= $2 ORDER BY due_date`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *jobRepository) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT count(*) FROM maintenance_jobs WHERE state = 'COMPLETED' AND completed_at >= $1`
	err := r.db.QueryRowContext(ctx, query, since).Scan(&count)
	return count, err
}

func (r *jobRepository) CountByState(ctx context.Context, state domain.JobState) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM maintenance_jobs WHERE state = $1`, state).Scan(&count)
	return count, err
}
