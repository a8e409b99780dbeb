package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state JobState
		today time.Time
		want  int
	}{
		{
			name:  "not overdue state",
			state: JobStatePending,
			today: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "due today",
			state: JobStateOverdue,
			today: time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "one calendar day past due before 24 hours elapse",
			state: JobStateOverdue,
			today: time.Date(2026, 3, 4, 0, 30, 0, 0, time.UTC),
			want:  1,
		},
		{
			name:  "two days past due",
			state: JobStateOverdue,
			today: time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC),
			want:  2,
		},
		{
			name:  "due in the future",
			state: JobStateOverdue,
			today: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &MaintenanceJob{State: tt.state, DueDate: due}
			assert.Equal(t, tt.want, job.DaysOverdue(tt.today))
		})
	}
}
