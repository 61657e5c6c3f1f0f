package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrNothingToUndo        = errors.New("nothing to undo")
	ErrNothingToRedo        = errors.New("nothing to redo")
	ErrConsistencyViolation = errors.New("consistency violation")

	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	// ErrNotAssigned is a not-found of the task within one user's list.
	ErrNotAssigned = fmt.Errorf("%w: task not assigned to user", ErrNotFound)
)
