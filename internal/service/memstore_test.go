package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

// memStore is an in-memory repository.Store used by the service tests. It
// returns copies so callers see repository-like read/update semantics.
type memStore struct {
	mu            sync.Mutex
	nextID        int32
	equipment     map[int32]*domain.Equipment
	operators     []*domain.Operator
	supervisors   []*domain.Supervisor
	types         []*domain.MaintenanceType
	jobs          map[int32]*domain.MaintenanceJob
	notifications map[int32]*domain.NotificationRecord
}

func newMemStore() *memStore {
	return &memStore{
		equipment:     make(map[int32]*domain.Equipment),
		jobs:          make(map[int32]*domain.MaintenanceJob),
		notifications: make(map[int32]*domain.NotificationRecord),
	}
}

func (s *memStore) id() int32 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Equipment() repository.EquipmentRepository        { return &memEquipment{s} }
func (s *memStore) Operators() repository.OperatorRepository         { return &memOperators{s} }
func (s *memStore) Supervisors() repository.SupervisorRepository     { return &memSupervisors{s} }
func (s *memStore) Types() repository.MaintenanceTypeRepository      { return &memTypes{s} }
func (s *memStore) Jobs() repository.JobRepository                   { return &memJobs{s} }
func (s *memStore) Notifications() repository.NotificationRepository { return &memNotifications{s} }

func (s *memStore) Transact(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type memEquipment struct{ s *memStore }

func (r *memEquipment) Create(ctx context.Context, eq *domain.Equipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eq.ID = r.s.id()
	cp := *eq
	r.s.equipment[eq.ID] = &cp
	return nil
}

func (r *memEquipment) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eq, ok := r.s.equipment[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *eq
	return &cp, nil
}

func (r *memEquipment) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	return r.GetByID(ctx, id)
}

func (r *memEquipment) UpdateUsage(ctx context.Context, id int32, usage int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eq, ok := r.s.equipment[id]
	if !ok {
		return domain.ErrNotFound
	}
	eq.CurrentUsage = usage
	return nil
}

func (r *memEquipment) ListActive(ctx context.Context) ([]domain.Equipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Equipment
	for _, eq := range r.s.equipment {
		if eq.Active {
			out = append(out, *eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memEquipment) CountActive(ctx context.Context) (int, error) {
	list, _ := r.ListActive(ctx)
	return len(list), nil
}

type memOperators struct{ s *memStore }

func (r *memOperators) Create(ctx context.Context, op *domain.Operator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op.ID = r.s.id()
	cp := *op
	r.s.operators = append(r.s.operators, &cp)
	return nil
}

func (r *memOperators) GetByID(ctx context.Context, id int32) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, op := range r.s.operators {
		if op.ID == id {
			cp := *op
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOperators) FirstActive(ctx context.Context) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, op := range r.s.operators {
		if op.Active {
			cp := *op
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memSupervisors struct{ s *memStore }

func (r *memSupervisors) Create(ctx context.Context, sup *domain.Supervisor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sup.ID = r.s.id()
	cp := *sup
	r.s.supervisors = append(r.s.supervisors, &cp)
	return nil
}

func (r *memSupervisors) ListActive(ctx context.Context) ([]domain.Supervisor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Supervisor
	for _, sup := range r.s.supervisors {
		if sup.Active {
			out = append(out, *sup)
		}
	}
	return out, nil
}

type memTypes struct{ s *memStore }

func (r *memTypes) Create(ctx context.Context, mt *domain.MaintenanceType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	mt.ID = r.s.id()
	cp := *mt
	r.s.types = append(r.s.types, &cp)
	return nil
}

func (r *memTypes) GetByID(ctx context.Context, id int32) (*domain.MaintenanceType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, mt := range r.s.types {
		if mt.ID == id {
			cp := *mt
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTypes) FindByName(ctx context.Context, name string) (*domain.MaintenanceType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, mt := range r.s.types {
		if mt.Name == name {
			cp := *mt
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memJobs struct{ s *memStore }

func (r *memJobs) Create(ctx context.Context, job *domain.MaintenanceJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job.ID = r.s.id()
	cp := *job
	r.s.jobs[job.ID] = &cp
	return nil
}

func (r *memJobs) GetByID(ctx context.Context, id int32) (*domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *memJobs) Update(ctx context.Context, job *domain.MaintenanceJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *job
	r.s.jobs[job.ID] = &cp
	return nil
}

func (r *memJobs) GetActiveByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, job := range r.s.jobs {
		if job.EquipmentID == equipmentID && job.IsActive() {
			cp := *job
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memJobs) LatestCompletedByEquipment(ctx context.Context, equipmentID int32) (*domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *domain.MaintenanceJob
	for _, job := range r.s.jobs {
		if job.EquipmentID != equipmentID || job.State != domain.JobStateCompleted {
			continue
		}
		if latest == nil || job.CompletedAt.After(*latest.CompletedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memJobs) ListActive(ctx context.Context) ([]domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.MaintenanceJob
	for _, job := range r.s.jobs {
		if job.IsActive() {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memJobs) ListByEquipment(ctx context.Context, equipmentID int32) ([]domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.MaintenanceJob
	for _, job := range r.s.jobs {
		if job.EquipmentID == equipmentID {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memJobs) ListByState(ctx context.Context, state domain.JobState) ([]domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.MaintenanceJob
	for _, job := range r.s.jobs {
		if job.State == state {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memJobs) ListByDueDateRange(ctx context.Context, from, to time.Time) ([]domain.MaintenanceJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.MaintenanceJob
	for _, job := range r.s.jobs {
		d := dateutil.DateOf(job.DueDate)
		if !d.Before(dateutil.DateOf(from)) && !d.After(dateutil.DateOf(to)) {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memJobs) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, job := range r.s.jobs {
		if job.State == domain.JobStateCompleted && job.CompletedAt != nil && !job.CompletedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memJobs) CountByState(ctx context.Context, state domain.JobState) (int, error) {
	list, _ := r.ListByState(ctx, state)
	return len(list), nil
}

type memNotifications struct{ s *memStore }

func (r *memNotifications) Create(ctx context.Context, n *domain.NotificationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r *memNotifications) GetByID(ctx context.Context, id int32) (*domain.NotificationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memNotifications) UpdateOutcome(ctx context.Context, n *domain.NotificationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[n.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r *memNotifications) ListPendingDue(ctx context.Context, now time.Time) ([]domain.NotificationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.NotificationRecord
	for _, n := range r.s.notifications {
		if n.State == domain.NotificationStatePending && !n.ScheduledFor.After(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memNotifications) ListByState(ctx context.Context, state domain.NotificationState) ([]domain.NotificationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.NotificationRecord
	for _, n := range r.s.notifications {
		if n.State == state {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ExistsOnDay keys off ScheduledFor, which the dispatcher sets from its clock.
// An empty recipient matches any recipient, as in the postgres implementation.
func (r *memNotifications) ExistsOnDay(ctx context.Context, jobID int32, typ domain.NotificationType, recipient string, day time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.JobID != nil && *n.JobID == jobID && n.Type == typ &&
			(recipient == "" || n.Recipient == recipient) &&
			dateutil.SameDay(n.ScheduledFor, day) {
			return true, nil
		}
	}
	return false, nil
}
