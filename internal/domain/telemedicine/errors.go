package telemedicine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("telemedicine case not found")

	// ErrNoSchedule is returned when attendance is confirmed before the case
	// has been assigned a schedule.
	ErrNoSchedule = errors.New("case has no schedule")

	// ErrPatientMismatch is returned when a confirmation names a patient other
	// than the one the case belongs to.
	ErrPatientMismatch = errors.New("confirmation patient does not match case")
)

// InvalidStageError reports an operation attempted from a stage it does not
// accept.
type InvalidStageError struct {
	Op      string
	Current Stage
	Allowed []Stage
}

func (e *InvalidStageError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot %s a case at stage %s (allowed: %s)", e.Op, e.Current, strings.Join(allowed, ", "))
}
