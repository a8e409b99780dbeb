package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed operation input.
	ErrInvalidInput = errors.New("invalid input")
)

// DuplicateActiveJobError is returned when creating a job for an equipment
// that already has a job in an active state.
type DuplicateActiveJobError struct {
	EquipmentID      int32
	ConflictingJobID int32
}

func (e *DuplicateActiveJobError) Error() string {
	return fmt.Sprintf("equipment %d already has active job %d", e.EquipmentID, e.ConflictingJobID)
}

// UsageRegressionError is returned when a usage value would move an
// equipment's counter backwards.
type UsageRegressionError struct {
	EquipmentID  int32
	CurrentUsage int32
	GivenUsage   int32
}

func (e *UsageRegressionError) Error() string {
	return fmt.Sprintf("usage %d regresses below current %d for equipment %d", e.GivenUsage, e.CurrentUsage, e.EquipmentID)
}

// InvalidTransitionError is returned when an operation is applied to a job in
// a state that does not allow it.
type InvalidTransitionError struct {
	JobID int32
	From  JobState
	Op    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s job %d in state %s", e.Op, e.JobID, e.From)
}
