package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

type operatorRepository struct {
	db repository.DBTX
}

func NewOperatorRepository(db repository.DBTX) repository.OperatorRepository {
	return &operatorRepository{db: db}
}

func (r *operatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	query := `INSERT INTO operators (name, email, phone, active) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, op.Name, op.Email, op.Phone, op.Active).Scan(&op.ID)
}

func (r *operatorRepository) GetByID(ctx context.Context, id int32) (*domain.Operator, error) {
	op := &domain.Operator{}
	query := `SELECT id, name, email, phone, active FROM operators WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&op.ID, &op.Name, &op.Email, &op.Phone, &op.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return op, nil
}

func (r *operatorRepository) FirstActive(ctx context.Context) (*domain.Operator, error) {
	op := &domain.Operator{}
	query := `SELECT id, name, email, phone, active FROM operators WHERE active ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&op.ID, &op.Name, &op.Email, &op.Phone, &op.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return op, nil
}

type supervisorRepository struct {
	db repository.DBTX
}

func NewSupervisorRepository(db repository.DBTX) repository.SupervisorRepository {
	return &supervisorRepository{db: db}
}

func (r *supervisorRepository) Create(ctx context.Context, s *domain.Supervisor) error {
	query := `INSERT INTO supervisors (name, email, active) VALUES ($1, $2, $3) RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.Name, s.Email, s.Active).Scan(&s.ID)
}

func (r *supervisorRepository) ListActive(ctx context.Context) ([]domain.Supervisor, error) {
	query := `SELECT id, name, email, active FROM supervisors WHERE active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Supervisor
	for rows.Next() {
		var s domain.Supervisor
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
