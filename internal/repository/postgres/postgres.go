// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"fleetmaint-backend/internal/repository"
)

// Store binds the repositories to a *sql.DB, or to a *sql.Tx inside Transact.
type Store struct {
	db *sql.DB
	tx *sql.Tx

	equipment     repository.EquipmentRepository
	operators     repository.OperatorRepository
	supervisors   repository.SupervisorRepository
	types         repository.MaintenanceTypeRepository
	jobs          repository.JobRepository
	notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(q repository.DBTX) {
	s.equipment = NewEquipmentRepository(q)
	s.operators = NewOperatorRepository(q)
	s.supervisors = NewSupervisorRepository(q)
	s.types = NewMaintenanceTypeRepository(q)
	s.jobs = NewJobRepository(q)
	s.notifications = NewNotificationRepository(q)
}

func (s *Store) Equipment() repository.EquipmentRepository        { return s.equipment }
func (s *Store) Operators() repository.OperatorRepository         { return s.operators }
func (s *Store) Supervisors() repository.SupervisorRepository     { return s.supervisors }
func (s *Store) Types() repository.MaintenanceTypeRepository      { return s.types }
func (s *Store) Jobs() repository.JobRepository                   { return s.jobs }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }

// Transact runs fn in a single transaction. Nested calls reuse the enclosing
// transaction rather than opening a new one.
func (s *Store) Transact(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &Store{db: s.db, tx: tx}
	txStore.bind(tx)

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
