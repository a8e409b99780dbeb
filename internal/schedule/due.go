// Package schedule computes when equipment is next due for maintenance.
// Everything here is pure: results depend only on the arguments, so the
// calculator can be exercised with arbitrary dates in tests.
package schedule

import (
	"time"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/domain"
)

// Policy holds the scheduling constants. Zero values are replaced by the
// documented defaults via Normalize.
type Policy struct {
	IntervalDays        int   // days between services
	IntervalUsage       int32 // usage units between services
	ReminderDays        int   // reminder window on the date trigger
	ReminderUsage       int32 // reminder window on the usage trigger
	EscalationGraceDays int   // full days overdue before supervisors are alerted
}

const (
	DefaultIntervalDays        = 90
	DefaultIntervalUsage       = 10000
	DefaultReminderDays        = 5
	DefaultReminderUsage       = 100
	DefaultEscalationGraceDays = 1
)

// Normalize fills unset fields with defaults and returns the result.
func (p Policy) Normalize() Policy {
	if p.IntervalDays <= 0 {
		p.IntervalDays = DefaultIntervalDays
	}
	if p.IntervalUsage <= 0 {
		p.IntervalUsage = DefaultIntervalUsage
	}
	if p.ReminderDays <= 0 {
		p.ReminderDays = DefaultReminderDays
	}
	if p.ReminderUsage <= 0 {
		p.ReminderUsage = DefaultReminderUsage
	}
	if p.EscalationGraceDays <= 0 {
		p.EscalationGraceDays = DefaultEscalationGraceDays
	}
	return p
}

// Projection is the calculator's output for one equipment.
type Projection struct {
	DueDate        time.Time
	DueUsage       int32
	DaysRemaining  int
	UsageRemaining int32
}

// NextDue projects the next service from the last completed job, or from
// today and the current counter when the equipment has no completed history.
func NextDue(now time.Time, eq *domain.Equipment, lastCompleted *domain.MaintenanceJob, p Policy) Projection {
	p = p.Normalize()

	baseDate := dateutil.DateOf(now)
	baseUsage := eq.CurrentUsage
	if lastCompleted != nil && lastCompleted.CompletedAt != nil {
		baseDate = dateutil.DateOf(*lastCompleted.CompletedAt)
		if lastCompleted.CompletedUsage != nil {
			baseUsage = *lastCompleted.CompletedUsage
		}
	}

	dueDate := dateutil.AddDays(baseDate, p.IntervalDays)
	dueUsage := baseUsage + p.IntervalUsage

	return Projection{
		DueDate:        dueDate,
		DueUsage:       dueUsage,
		DaysRemaining:  dateutil.DaysBetween(now, dueDate),
		UsageRemaining: dueUsage - eq.CurrentUsage,
	}
}

// Remaining measures an existing job's distance to its thresholds. Both
// values go negative once the job is overdue on that trigger.
func Remaining(now time.Time, job *domain.MaintenanceJob, eq *domain.Equipment) (days int, usage int32) {
	return dateutil.DaysBetween(now, job.DueDate), job.DueUsage - eq.CurrentUsage
}

// NeedsNow reports whether either trigger has been reached.
func NeedsNow(now time.Time, job *domain.MaintenanceJob, eq *domain.Equipment) bool {
	days, usage := Remaining(now, job, eq)
	return days <= 0 || usage <= 0
}

// DueSoon reports whether the job is inside the reminder window. The two
// triggers combine with OR: either dimension alone is cause for alarm.
func DueSoon(now time.Time, job *domain.MaintenanceJob, eq *domain.Equipment, p Policy) bool {
	p = p.Normalize()
	days, usage := Remaining(now, job, eq)
	return days <= p.ReminderDays || usage <= p.ReminderUsage
}
