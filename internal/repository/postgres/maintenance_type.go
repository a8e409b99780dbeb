package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

type maintenanceTypeRepository struct {
	db repository.DBTX
}

func NewMaintenanceTypeRepository(db repository.DBTX) repository.MaintenanceTypeRepository {
	return &maintenanceTypeRepository{db: db}
}

func (r *maintenanceTypeRepository) Create(ctx context.Context, mt *domain.MaintenanceType) error {
	query := `INSERT INTO maintenance_types (name, description) VALUES ($1, $2) RETURNING id`
	return r.db.QueryRowContext(ctx, query, mt.Name, mt.Description).Scan(&mt.ID)
}

func (r *maintenanceTypeRepository) GetByID(ctx context.Context, id int32) (*domain.MaintenanceType, error) {
	mt := &domain.MaintenanceType{}
	query := `SELECT id, name, description FROM maintenance_types WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&mt.ID, &mt.Name, &mt.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mt, nil
}

func (r *maintenanceTypeRepository) FindByName(ctx context.Context, name string) (*domain.MaintenanceType, error) {
	mt := &domain.MaintenanceType{}
	query := `SELECT id, name, description FROM maintenance_types WHERE name = $1`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&mt.ID, &mt.Name, &mt.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mt, nil
}
