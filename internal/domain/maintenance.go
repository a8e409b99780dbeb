package domain

import (
	"time"

	"fleetmaint-backend/internal/dateutil"
)

type JobState string

const (
	JobStatePending    JobState = "PENDING"
	JobStateInProgress JobState = "IN_PROGRESS"
	JobStateCompleted  JobState = "COMPLETED"
	JobStateOverdue    JobState = "OVERDUE"
)

// ActiveJobStates are the states in which a job still occupies the
// one-active-job-per-equipment slot.
var ActiveJobStates = []JobState{JobStatePending, JobStateInProgress, JobStateOverdue}

// IsActive reports whether the state counts against the single active job
// invariant (anything not yet completed).
func (s JobState) IsActive() bool {
	return s == JobStatePending || s == JobStateInProgress || s == JobStateOverdue
}

// MaintenanceType is immutable reference data describing a kind of service.
type MaintenanceType struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MaintenanceJob is one scheduled or completed maintenance event for one
// equipment. At most one job per equipment may be in an active state.
type MaintenanceJob struct {
	ID          int32 `json:"id"`
	EquipmentID int32 `json:"equipment_id"`
	OperatorID  int32 `json:"operator_id"`
	TypeID      int32 `json:"type_id"`

	DueDate  time.Time `json:"due_date"`
	DueUsage int32     `json:"due_usage"`

	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CompletedUsage *int32     `json:"completed_usage,omitempty"`

	State     JobState `json:"state"`
	Notes     string   `json:"notes"`
	CostCents *int64   `json:"cost_cents,omitempty"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// IsActive reports whether the job occupies its equipment's active slot.
func (j *MaintenanceJob) IsActive() bool {
	return j.State.IsActive()
}

// DaysOverdue returns how many calendar days past the due date the job is,
// zero if it is not overdue.
func (j *MaintenanceJob) DaysOverdue(today time.Time) int {
	if j.State != JobStateOverdue {
		return 0
	}
	d := dateutil.DaysBetween(j.DueDate, today)
	if d < 0 {
		return 0
	}
	return d
}
