package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

type equipmentRepository struct {
	db repository.DBTX
}

func NewEquipmentRepository(db repository.DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, plate, brand, model, year, tank_capacity, current_usage, active, created_on, updated_on`

func scanEquipment(row interface{ Scan(...any) error }) (*domain.Equipment, error) {
	eq := &domain.Equipment{}
	err := row.Scan(&eq.ID, &eq.Plate, &eq.Brand, &eq.Model, &eq.Year, &eq.TankCapacity, &eq.CurrentUsage, &eq.Active, &eq.CreatedOn, &eq.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return eq, nil
}

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	query := `INSERT INTO equipment (plate, brand, model, year, tank_capacity, current_usage, active, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	eq.CreatedOn = now
	eq.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query, eq.Plate, eq.Brand, eq.Model, eq.Year, eq.TankCapacity, eq.CurrentUsage, eq.Active, now, now).Scan(&eq.ID)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	return scanEquipment(r.db.QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	return scanEquipment(r.db.QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) UpdateUsage(ctx context.Context, id int32, usage int32) error {
	query := `UPDATE equipment SET current_usage = $1, updated_on = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, usage, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) ListActive(ctx context.Context) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Equipment
	for rows.Next() {
		var eq domain.Equipment
		if err := rows.Scan(&eq.ID, &eq.Plate, &eq.Brand, &eq.Model, &eq.Year, &eq.TankCapacity, &eq.CurrentUsage, &eq.Active, &eq.CreatedOn, &eq.UpdatedOn); err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	return out, rows.Err()
}

func (r *equipmentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM equipment WHERE active`).Scan(&count)
	return count, err
}
