package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetmaint-backend/internal/domain"
)

func equipmentRows(list ...*domain.Equipment) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "plate", "brand", "model", "year", "tank_capacity",
		"current_usage", "active", "created_on", "updated_on"})
	for _, eq := range list {
		rows.AddRow(eq.ID, eq.Plate, eq.Brand, eq.Model, eq.Year, eq.TankCapacity,
			eq.CurrentUsage, eq.Active, eq.CreatedOn, eq.UpdatedOn)
	}
	return rows
}

func TestEquipmentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEquipmentRepository(db)
	ctx := context.Background()

	eq := &domain.Equipment{Plate: "ABC-123", Brand: "Volvo", Model: "FH16", Year: 2022, TankCapacity: 400, CurrentUsage: 2500, Active: true}

	mock.ExpectQuery("INSERT INTO equipment").
		WithArgs(eq.Plate, eq.Brand, eq.Model, eq.Year, eq.TankCapacity, eq.CurrentUsage, eq.Active,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	require.NoError(t, repo.Create(ctx, eq))
	assert.Equal(t, int32(3), eq.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEquipmentRepository(db)
	ctx := context.Background()

	want := &domain.Equipment{ID: 3, Plate: "ABC-123", CurrentUsage: 2500, Active: true,
		CreatedOn: time.Now(), UpdatedOn: time.Now()}
	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(3)).
		WillReturnRows(equipmentRows(want))

	got, err := repo.GetByIDForUpdate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", got.Plate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_UpdateUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEquipmentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE equipment SET current_usage").
			WithArgs(int32(3100), sqlmock.AnyArg(), int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateUsage(ctx, 3, 3100))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE equipment SET current_usage").
			WithArgs(int32(3100), sqlmock.AnyArg(), int32(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateUsage(ctx, 99, 3100), domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEquipmentRepository(db)
	ctx := context.Background()

	a := &domain.Equipment{ID: 1, Plate: "AAA-111", Active: true}
	b := &domain.Equipment{ID: 2, Plate: "BBB-222", Active: true}
	mock.ExpectQuery("SELECT (.+) FROM equipment WHERE active ORDER BY id").
		WillReturnRows(equipmentRows(a, b))

	got, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBB-222", got[1].Plate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
